package socketcanv2

import (
	"context"
	"sync"

	"go.einride.tech/can"
	"go.einride.tech/can/pkg/socketcan"

	openvt "github.com/openvt/openvt"
	log "github.com/sirupsen/logrus"
)

// Alternative socketcan wrapper built on go.einride.tech/can, which talks
// to the kernel socket directly and supports context based cancellation.

func init() {
	openvt.RegisterInterface("socketcanv2", NewSocketcanv2Bus)
}

type Socketcanv2Bus struct {
	channel    string
	conn       interface{ Close() error }
	rx         *socketcan.Receiver
	tx         *socketcan.Transmitter
	rxCallback openvt.FrameListener
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

func NewSocketcanv2Bus(channel string) (openvt.Bus, error) {
	return &Socketcanv2Bus{channel: channel}, nil
}

// "Connect" implementation of Bus interface
func (b *Socketcanv2Bus) Connect(...any) error {
	ctx, cancel := context.WithCancel(context.Background())
	conn, err := socketcan.DialContext(ctx, "can", b.channel)
	if err != nil {
		cancel()
		return err
	}
	b.conn = conn
	b.rx = socketcan.NewReceiver(conn)
	b.tx = socketcan.NewTransmitter(conn)
	b.cancel = cancel
	b.wg.Add(1)
	go b.handleReception()
	return nil
}

// "Disconnect" implementation of Bus interface
func (b *Socketcanv2Bus) Disconnect() error {
	if b.conn == nil {
		return openvt.ErrInvalidState
	}
	b.cancel()
	err := b.conn.Close()
	b.wg.Wait()
	return err
}

// "Send" implementation of Bus interface
func (b *Socketcanv2Bus) Send(frame openvt.Frame) error {
	if b.tx == nil {
		return openvt.ErrInvalidState
	}
	return b.tx.TransmitFrame(context.Background(), can.Frame{
		ID:     frame.ID,
		Length: frame.DLC,
		Data:   can.Data(frame.Data),
	})
}

// "Subscribe" implementation of Bus interface
func (b *Socketcanv2Bus) Subscribe(rxCallback openvt.FrameListener) error {
	b.rxCallback = rxCallback
	return nil
}

func (b *Socketcanv2Bus) handleReception() {
	defer b.wg.Done()
	for b.rx.Receive() {
		frame := b.rx.Frame()
		if b.rxCallback == nil {
			continue
		}
		b.rxCallback.Handle(openvt.Frame{
			ID:   frame.ID,
			DLC:  frame.Length,
			Data: [8]byte(frame.Data),
		})
	}
	if err := b.rx.Err(); err != nil {
		log.Warnf("[CAN] socketcanv2 receive loop stopped : %v", err)
	}
}
