package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"reflect"
	"slices"
	"testing"

	"github.com/flemzord/mercury/internal/store/storetest"
	"github.com/flemzord/mercury/pkg/message"
)

func seed(t *testing.T, tg *testGateway, msgs ...*message.Message) {
	t.Helper()
	for _, m := range msgs {
		if err := tg.store.Save(context.Background(), m); err != nil {
			t.Fatalf("seed %s: %v", m.ID, err)
		}
	}
}

func TestGetMessage(t *testing.T) {
	tg := newTestGateway(t)
	seed(t, tg, storetest.Message("m1", "t1", 1000))

	rr := tg.do(t, http.MethodGet, "/v1/messages/m1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if id := decodeMessage(t, rr.Body.Bytes()).ID; id != "m1" {
		t.Errorf("ID = %q, want m1", id)
	}
	if !slices.Contains(tg.spanNames(), "mercury.store.get") {
		t.Errorf("spans = %v, want mercury.store.get", tg.spanNames())
	}

	rr = tg.do(t, http.MethodGet, "/v1/messages/missing", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("missing message status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestListThread(t *testing.T) {
	tg := newTestGateway(t)
	seed(t, tg,
		storetest.Message("a", "t1", 1000),
		storetest.Message("b", "t1", 2000),
		storetest.Message("c", "t1", 3000),
	)

	rr := tg.do(t, http.MethodGet, "/v1/threads/t1/messages?limit=2", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp struct {
		ThreadID string            `json:"thread_id"`
		Messages []message.Message `json:"messages"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ThreadID != "t1" {
		t.Errorf("thread_id = %q, want t1", resp.ThreadID)
	}
	var ids []string
	for _, m := range resp.Messages {
		ids = append(ids, m.ID)
	}
	if want := []string{"c", "b"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}

	for _, bad := range []string{"abc", "-1", "501"} {
		rr := tg.do(t, http.MethodGet, "/v1/threads/t1/messages?limit="+bad, "")
		if rr.Code != http.StatusBadRequest {
			t.Errorf("limit=%s status = %d, want %d", bad, rr.Code, http.StatusBadRequest)
		}
	}
}

func TestMarkRead(t *testing.T) {
	tg := newTestGateway(t)
	seed(t, tg, storetest.Message("m1", "t1", 1000))

	rr := tg.do(t, http.MethodPost, "/v1/threads/t1/read", `{"reader_id":"200","watermark":1000}`)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d: %s", rr.Code, http.StatusNoContent, rr.Body.String())
	}

	got, err := tg.store.Get(context.Background(), "m1")
	if err != nil {
		t.Fatalf("store.Get: %v", err)
	}
	if want := []string{"200"}; !reflect.DeepEqual(got.ReadBy, want) {
		t.Errorf("ReadBy = %v, want %v", got.ReadBy, want)
	}
}

func TestMarkRead_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{name: "missing reader", body: `{"watermark":1}`, msg: "reader_id is required"},
		{name: "missing watermark", body: `{"reader_id":"200"}`, msg: "watermark is required"},
		{name: "negative watermark", body: `{"reader_id":"200","watermark":-5}`, msg: "invalid watermark"},
		{name: "unknown field", body: `{"reader_id":"200","watermark":1,"extra":true}`, msg: "invalid JSON body"},
		{name: "trailing data", body: `{"reader_id":"200","watermark":1}{}`, msg: "invalid JSON body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tg := newTestGateway(t)
			rr := tg.do(t, http.MethodPost, "/v1/threads/t1/read", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
			}

			var resp ErrorResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if resp.Error.Message != tt.msg {
				t.Errorf("message = %q, want %q", resp.Error.Message, tt.msg)
			}
		})
	}
}

func TestMessageRoutes_NotMountedWithoutStore(t *testing.T) {
	tg := newTestGateway(t, withoutStore())

	for _, target := range []string{"/v1/messages/m1", "/v1/threads/t1/messages"} {
		rr := tg.do(t, http.MethodGet, target, "")
		if rr.Code != http.StatusNotFound {
			t.Errorf("%s status = %d, want %d", target, rr.Code, http.StatusNotFound)
		}
	}
}
