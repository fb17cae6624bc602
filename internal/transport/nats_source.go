package transport

import (
	"context"

	pktNats "vr-scene-sync/pkg/nats"
)

// NatsSource feeds scene events published on the bus into the same Handler
// the socket client uses.
type NatsSource struct {
	sub     *pktNats.Subscriber
	subject string
	durable string
	handler Handler
}

func NewNatsSource(sub *pktNats.Subscriber, subject, durable string, handler Handler) *NatsSource {
	return &NatsSource{sub: sub, subject: subject, durable: durable, handler: handler}
}

func (n *NatsSource) Source() string {
	return "nats:" + n.subject
}

func (n *NatsSource) Start(ctx context.Context) error {
	src := n.Source()
	err := n.sub.Subscribe(ctx, n.subject, n.durable, func(_ context.Context, _ string, data []byte) error {
		n.handler.OnMessage(src, data)
		return nil
	})
	if err != nil {
		n.handler.OnError(src, err)
		return err
	}
	n.handler.OnConnected(src)

	go func() {
		<-ctx.Done()
		n.handler.OnClosed(src, "context cancelled")
	}()
	return nil
}
