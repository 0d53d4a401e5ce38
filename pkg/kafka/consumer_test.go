package kafka

import (
	"context"
	"testing"
	"time"
)

func TestStopWaitsForReadersBeforeClosingQueue(t *testing.T) {
	c, err := NewConsumer(
		WithConsumerBrokers([]string{"localhost:9092"}),
		WithConsumerBufferSize(1),
	)
	if err != nil {
		t.Fatalf("new consumer: %v", err)
	}

	// Simulate a reader with a send blocked on a full queue. Stop must
	// let it observe stopChan and exit before msgChan closes.
	ready := make(chan struct{})
	c.readerWg.Add(1)
	go func() {
		defer c.readerWg.Done()
		c.msgChan <- &message{topic: "t"}
		close(ready)
		select {
		case c.msgChan <- &message{topic: "t"}:
		case <-c.stopChan:
		}
	}()
	<-ready
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	c, err := NewConsumer(WithConsumerBrokers([]string{"localhost:9092"}))
	if err != nil {
		t.Fatalf("new consumer: %v", err)
	}
	ctx := context.Background()
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("first stop: %v", err)
	}
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}
