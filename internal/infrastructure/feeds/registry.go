package feeds

import (
	"net/http"
	"time"

	"ContentCurator/internal/source"
)

// NewRegistry registers every adapter kind this package provides.
// A nil client gets a default one with an explicit timeout.
func NewRegistry(client *http.Client, now func() time.Time) *source.Registry {
	client = defaultClient(client)

	reg := source.NewRegistry()
	reg.Register(KindRSS, func(spec source.Spec) (source.Adapter, error) {
		return NewRSSAdapter(spec, client, now), nil
	})
	reg.Register(KindForum, func(spec source.Spec) (source.Adapter, error) {
		return NewForumAdapter(spec, client, now)
	})
	reg.Register(KindRegulator, func(spec source.Spec) (source.Adapter, error) {
		return NewRegulatorAdapter(spec, client, now)
	})
	return reg
}
