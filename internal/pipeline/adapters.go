package pipeline

import (
	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/source"
)

// Adapters are the source adapters used for each stage, in fan-out order.
type Adapters struct {
	Discovery  []source.Adapter
	Enrichment []source.Adapter
	Contacts   []source.Adapter
}

// SourceLists names the adapters to use per stage.
type SourceLists struct {
	Discovery  []string `yaml:"discovery" mapstructure:"discovery"`
	Enrichment []string `yaml:"enrichment" mapstructure:"enrichment"`
	Contacts   []string `yaml:"contacts" mapstructure:"contacts"`
}

// BuildAdapters selects adapters from the catalog, wrapping each with the
// limiter. Discovery needs at least one source; the later stages may be
// left empty to skip them.
func BuildAdapters(c *source.Catalog, lists SourceLists, l source.Limiter) (Adapters, error) {
	var a Adapters
	var err error
	if a.Discovery, err = c.Select(model.StageDiscovery, lists.Discovery, l); err != nil {
		return Adapters{}, err
	}
	if len(lists.Enrichment) > 0 {
		if a.Enrichment, err = c.Select(model.StageEnrichment, lists.Enrichment, l); err != nil {
			return Adapters{}, err
		}
	}
	if len(lists.Contacts) > 0 {
		if a.Contacts, err = c.Select(model.StageContacts, lists.Contacts, l); err != nil {
			return Adapters{}, err
		}
	}
	return a, nil
}
