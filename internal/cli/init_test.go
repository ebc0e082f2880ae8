package cli

import (
	"io"
	"testing"

	"ledger/internal/config"
	"ledger/internal/log"
	"ledger/internal/sheets/memory"
)

func TestInitGridPublisherWithoutSpreadsheet(t *testing.T) {
	logger := log.New(log.Config{Output: io.Discard})
	pub := InitGridPublisher(logger, &config.Config{})
	if _, ok := pub.(*memory.Publisher); !ok {
		t.Fatalf("InitGridPublisher() = %T, want *memory.Publisher", pub)
	}
}

func TestInitAMQPDisabled(t *testing.T) {
	logger := log.New(log.Config{Output: io.Discard})
	if c := InitAMQP(logger, &config.Config{}); c != nil {
		t.Fatalf("InitAMQP() = %v, want nil without AMQP_URL", c)
	}
}
