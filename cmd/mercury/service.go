package main

import (
	"context"
	"fmt"

	"github.com/flemzord/mercury/pkg/app"
	"github.com/kardianos/service"
	"github.com/spf13/cobra"
)

// program adapts the mercury runtime to the service manager lifecycle.
type program struct {
	params app.RunParams
	rt     *app.Runtime
}

func (p *program) Start(service.Service) error {
	rt, err := app.Prepare(context.Background(), p.params)
	if err != nil {
		return err
	}
	if err := rt.Start(); err != nil {
		return err
	}
	p.rt = rt
	return nil
}

func (p *program) Stop(service.Service) error {
	if p.rt != nil {
		p.rt.Stop()
		p.rt = nil
	}
	return nil
}

func newService(params app.RunParams) (service.Service, error) {
	args := []string{"service", "run"}
	if params.ConfigPath != "" {
		args = append(args, "--config", params.ConfigPath)
	}
	if params.DataDir != "" {
		args = append(args, "--data-dir", params.DataDir)
	}
	return service.New(&program{params: params}, &service.Config{
		Name:        "mercury",
		DisplayName: "Mercury",
		Description: "Messenger payload normalization gateway",
		Arguments:   args,
	})
}

func serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage mercury as a system service",
	}
	cmd.PersistentFlags().StringP("config", "c", "", "Path to configuration file")
	cmd.PersistentFlags().String("data-dir", "", "Persistent data directory")

	for _, action := range service.ControlAction {
		cmd.AddCommand(&cobra.Command{
			Use:   action,
			Short: fmt.Sprintf("%s the mercury service", action),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				svc, err := newService(runParams(cmd))
				if err != nil {
					return err
				}
				if err := service.Control(svc, action); err != nil {
					return fmt.Errorf("service %s: %w", action, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "service %s: ok\n", action)
				return nil
			},
		})
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run under the service manager",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := newService(runParams(cmd))
			if err != nil {
				return err
			}
			return svc.Run()
		},
	})
	return cmd
}
