package fake

import (
	"testing"

	"github.com/pulsedeck/pulsedeck/server/internal/store"
	"github.com/pulsedeck/pulsedeck/server/internal/store/storetest"
)

func TestFakeStoreCompliance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return New() })
}
