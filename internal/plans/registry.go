// Package plans holds the subscription plan catalogue and its limits.
package plans

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	Free = "free"
	Pro  = "pro"
	Team = "team"

	FeatureAIInsights   = "ai_insights"
	FeatureReportExport = "report_export"
	FeatureTeamSharing  = "team_sharing"
)

// Plan limits. A zero or negative limit means unlimited.
type Plan struct {
	ID                 string          `yaml:"id" json:"id"`
	Name               string          `yaml:"name" json:"name"`
	MaxChannels        int             `yaml:"max_channels" json:"max_channels"`
	MaxDevices         int             `yaml:"max_devices" json:"max_devices"`
	MaxReportsPerMonth int             `yaml:"max_reports_per_month" json:"max_reports_per_month"`
	ProductIDs         []string        `yaml:"product_ids" json:"-"`
	Features           map[string]bool `yaml:"features" json:"features"`
}

type File struct {
	Plans []Plan `yaml:"plans"`
}

type Registry struct {
	mu    sync.RWMutex
	plans map[string]*Plan
}

func NewRegistry() *Registry {
	return &Registry{plans: make(map[string]*Plan)}
}

// Default returns the built-in free/pro/team catalogue.
func Default() *Registry {
	r := NewRegistry()
	r.Register(&Plan{ID: Free, Name: "Free", MaxChannels: 1, MaxDevices: 2, MaxReportsPerMonth: 3,
		Features: map[string]bool{}})
	r.Register(&Plan{ID: Pro, Name: "Pro", MaxChannels: 10, MaxDevices: 5, MaxReportsPerMonth: 100,
		ProductIDs: []string{"ytpulse_pro_monthly", "ytpulse_pro_yearly"},
		Features:   map[string]bool{FeatureAIInsights: true, FeatureReportExport: true}})
	r.Register(&Plan{ID: Team, Name: "Team", MaxChannels: 50, MaxDevices: 10, MaxReportsPerMonth: 0,
		ProductIDs: []string{"ytpulse_team_monthly"},
		Features:   map[string]bool{FeatureAIInsights: true, FeatureReportExport: true, FeatureTeamSharing: true}})
	return r
}

// Parse decodes a YAML plan file. It requires a "free" plan.
func Parse(data []byte) ([]Plan, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse plans config: %w", err)
	}
	seen := make(map[string]bool)
	for _, p := range file.Plans {
		if p.ID == "" {
			return nil, fmt.Errorf("plan without id")
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("duplicate plan %q", p.ID)
		}
		seen[p.ID] = true
	}
	if !seen[Free] {
		return nil, fmt.Errorf("plans config must define a %q plan", Free)
	}
	return file.Plans, nil
}

// LoadFromFile reads path; a missing file yields the default catalogue.
func LoadFromFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read plans config: %w", err)
	}
	list, err := Parse(data)
	if err != nil {
		return nil, err
	}
	r := NewRegistry()
	r.Replace(list)
	return r, nil
}

func (r *Registry) Register(p *Plan) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.Features == nil {
		p.Features = map[string]bool{}
	}
	r.plans[p.ID] = p
}

// Replace swaps the whole catalogue atomically.
func (r *Registry) Replace(list []Plan) {
	next := make(map[string]*Plan, len(list))
	for i := range list {
		p := list[i]
		if p.Features == nil {
			p.Features = map[string]bool{}
		}
		next[p.ID] = &p
	}
	r.mu.Lock()
	r.plans = next
	r.mu.Unlock()
}

// Get returns the plan, or the free plan for unknown ids.
func (r *Registry) Get(id string) *Plan {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.plans[id]; ok {
		return p
	}
	return r.plans[Free]
}

func (r *Registry) Exists(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.plans[id]
	return ok
}

func (r *Registry) HasFeature(id, feature string) bool {
	p := r.Get(id)
	if p == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return p.Features[feature]
}

// ForProduct maps a billing product id to its plan id.
func (r *Registry) ForProduct(productID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.plans {
		for _, pid := range p.ProductIDs {
			if pid == productID {
				return p.ID, true
			}
		}
	}
	return "", false
}

func (r *Registry) All() []*Plan {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Plan, 0, len(r.plans))
	for _, p := range r.plans {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Within reports whether used stays inside limit.
func Within(limit int, used int64) bool {
	return limit <= 0 || used < int64(limit)
}
