package search

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sort"

	"ddgplugin/models"
)

// Plugin is implemented by any package that can answer launcher queries.
type Plugin interface {
	Info() PluginInfo

	// Search streams records for the query as they are derived. A non-nil
	// error ends the sequence.
	Search(ctx context.Context, q Query) iter.Seq2[models.ResultRecord, error]

	// Rehydrate rebuilds a previously emitted record from its identity.
	// It returns nil when the record cannot be reproduced.
	Rehydrate(ctx context.Context, id models.Identity) (*models.ResultRecord, error)
}

// Factory builds a plugin from the loaded settings
type Factory func(settings *models.Settings) (Plugin, error)

type registration struct {
	name    string
	factory Factory
}

// global registry that plugins populate from their init() functions.
var registeredPlugins []registration

// RegisterPlugin is called by a plugin's init() to make itself available.
func RegisterPlugin(name string, f Factory) {
	registeredPlugins = append(registeredPlugins, registration{name: name, factory: f})
}

// ErrUnknownTag is returned when no plugin declared the query's tag
var ErrUnknownTag = errors.New("no plugin handles tag")

// Manager is the façade the front-ends talk to. It routes each query to the
// plugin that declared its tag.
type Manager struct {
	plugins []Plugin
}

// NewManager constructs every registered plugin with the given settings.
func NewManager(settings *models.Settings) (*Manager, error) {
	m := &Manager{}
	for _, r := range registeredPlugins {
		p, err := r.factory(settings)
		if err != nil {
			return nil, fmt.Errorf("init plugin %s: %w", r.name, err)
		}
		m.plugins = append(m.plugins, p)
	}
	return m, nil
}

// NewManagerWith wraps already constructed plugins.
func NewManagerWith(plugins ...Plugin) *Manager {
	return &Manager{plugins: plugins}
}

// Plugins returns the managed plugins in registration order
func (m *Manager) Plugins() []Plugin {
	return slices.Clone(m.plugins)
}

// Resolve picks the plugin for a tag. Untagged queries go to the first
// plugin that does not insist on a tag.
func (m *Manager) Resolve(tag string) (Plugin, error) {
	for _, p := range m.plugins {
		info := p.Info()
		if tag == "" && !info.SearchTagOnly {
			return p, nil
		}
		if tag != "" && info.HasTag(tag) {
			return p, nil
		}
	}
	if tag == "" {
		return nil, fmt.Errorf("%w: no plugin accepts untagged queries", ErrUnknownTag)
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownTag, tag)
}

// ByName looks a plugin up by its Info().Name
func (m *Manager) ByName(name string) (Plugin, bool) {
	for _, p := range m.plugins {
		if p.Info().Name == name {
			return p, true
		}
	}
	return nil, false
}

// Search forwards the query to the plugin owning its tag. Queries nobody
// owns produce an empty sequence, the same as a rejected query.
func (m *Manager) Search(ctx context.Context, q Query) iter.Seq2[models.ResultRecord, error] {
	p, err := m.Resolve(q.Tag)
	if err != nil {
		return func(func(models.ResultRecord, error) bool) {}
	}
	if minLen := p.Info().MinimumSearchLength; len([]rune(q.Text)) < minLen {
		return func(func(models.ResultRecord, error) bool) {}
	}
	return p.Search(ctx, q)
}

// Collect drains Search into a slice ordered by score, highest first.
// Records with equal score keep their emission order.
func (m *Manager) Collect(ctx context.Context, q Query) ([]models.ResultRecord, error) {
	var results []models.ResultRecord
	for rec, err := range m.Search(ctx, q) {
		if err != nil {
			return results, err
		}
		results = append(results, rec)
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results, nil
}

// FindBestMatch runs Collect and returns the highest-scoring record.
func (m *Manager) FindBestMatch(ctx context.Context, q Query) (*models.ResultRecord, error) {
	results, err := m.Collect(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no results for %q", q.Text)
	}
	return &results[0], nil
}

// Rehydrate asks the named plugin to rebuild a record.
func (m *Manager) Rehydrate(ctx context.Context, pluginName string, id models.Identity) (*models.ResultRecord, error) {
	p, ok := m.ByName(pluginName)
	if !ok {
		return nil, fmt.Errorf("unknown plugin %q", pluginName)
	}
	return p.Rehydrate(ctx, id)
}
