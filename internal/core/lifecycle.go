package core

import (
	"context"

	"gopkg.in/yaml.v3"
)

// Configurable is implemented by modules that read a section of the
// "modules" map. Configure runs only when the section exists, before
// Provision.
type Configurable interface {
	Configure(node *yaml.Node) error
}

// Provisioner is implemented by modules that apply defaults, open resources
// and publish services (store.messages, messenger.normalizer) on the
// AppContext.
type Provisioner interface {
	Provision(ctx *AppContext) error
}

// Validator checks the provisioned configuration. It must not mutate the
// module.
type Validator interface {
	Validate() error
}

// Starter is implemented by modules with background work, such as the HTTP
// listener or the prune scheduler. Start must not block. Services published
// by other modules during Provision are available here.
type Starter interface {
	Start() error
}

// Stopper releases what Provision and Start acquired. Stop is called in
// reverse load order, and also for modules that were loaded but never
// started when the App is released.
type Stopper interface {
	Stop(ctx context.Context) error
}
