package module

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/phlowdotdev/phlow/value"
)

// NATSBus bridges the module bus over NATS request/reply, for modules that
// run as separate services rather than in-process goroutines. Subject
// naming and the connect-then-subscribe lifecycle are grounded on
// GoCodeAlone-workflow/module/nats_broker.go; the request/reply call shape
// (one request, one reply, no streaming) maps directly onto the spec's
// module-call contract, unlike that broker's pub/sub MessageHandler model.
type NATSBus struct {
	conn    *nats.Conn
	subject func(name string) string
}

// wireRequest/wireReply are the JSON envelope exchanged over NATS; they
// mirror Package/Response without the Go channel fields those can't cross
// the wire.
type wireRequest struct {
	Input   json.RawMessage `json:"input"`
	Payload json.RawMessage `json:"payload"`
}

type wireReply struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// NewNATSBus connects to url and returns a Bus backed by NATS request/reply.
// Each module name maps to the subject "phlow.module.<name>".
func NewNATSBus(url string) (*NATSBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("module: connect to NATS at %s: %w", url, err)
	}
	return &NATSBus{
		conn:    conn,
		subject: func(name string) string { return "phlow.module." + name },
	}, nil
}

// Register subscribes a queue group (named after the module) on its
// subject and relays each incoming NATS message onto the returned Go
// channel as a Package whose Reply is drained back out onto the wire.
func (b *NATSBus) Register(name string, capacity int) (<-chan Package, error) {
	out := make(chan Package, capacity)
	sub, err := b.conn.QueueSubscribe(b.subject(name), name, func(msg *nats.Msg) {
		var req wireRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			respondErr(msg, err)
			return
		}
		var input, payload value.Value
		if len(req.Input) > 0 {
			if err := json.Unmarshal(req.Input, &input); err != nil {
				respondErr(msg, err)
				return
			}
		}
		if len(req.Payload) > 0 {
			if err := json.Unmarshal(req.Payload, &payload); err != nil {
				respondErr(msg, err)
				return
			}
		}

		reply := make(chan Response, 1)
		out <- Package{Module: name, Input: input, Payload: payload, Reply: reply}
		resp := <-reply
		if resp.Error != nil {
			respondErr(msg, resp.Error)
			return
		}
		data, err := json.Marshal(resp.Data)
		if err != nil {
			respondErr(msg, err)
			return
		}
		wb, _ := json.Marshal(wireReply{Data: data})
		_ = msg.Respond(wb)
	})
	if err != nil {
		return nil, fmt.Errorf("module: subscribe %q: %w", name, err)
	}
	_ = sub
	return out, nil
}

func respondErr(msg *nats.Msg, err error) {
	wb, _ := json.Marshal(wireReply{Error: err.Error()})
	_ = msg.Respond(wb)
}

// Names is not meaningful for a remote bus without a discovery protocol;
// NATSBus returns nil since module presence is determined by whether a
// request to its subject gets a reply, not by a local registry.
func (b *NATSBus) Names() []string { return nil }

// Execute performs a NATS request/reply round trip for name.
func (b *NATSBus) Execute(ctx context.Context, name string, input, payload value.Value) (value.Value, error) {
	inputJSON, err := json.Marshal(input)
	if err != nil {
		return value.Value{}, err
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return value.Value{}, err
	}
	reqJSON, err := json.Marshal(wireRequest{Input: inputJSON, Payload: payloadJSON})
	if err != nil {
		return value.Value{}, err
	}

	msg, err := b.conn.RequestWithContext(ctx, b.subject(name), reqJSON)
	if err != nil {
		if err == nats.ErrNoResponders {
			return value.Value{}, &NotLoadedError{Name: name}
		}
		return value.Value{}, err
	}

	var reply wireReply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return value.Value{}, err
	}
	if reply.Error != "" {
		return value.Value{}, &ResponseError{Module: name, Msg: reply.Error}
	}
	var out value.Value
	if len(reply.Data) > 0 {
		if err := json.Unmarshal(reply.Data, &out); err != nil {
			return value.Value{}, err
		}
	}
	return out, nil
}
