// Package report computes the dashboard figures shown on the pilotage screen:
// pipeline conversion rates, dossier status distribution, revenue total and
// the most recent activity snapshot.
package report

import (
	"context"
	"errors"
	"strings"

	"github.com/leadforge/prospectdb"
	"github.com/leadforge/prospectdb/stats"
)

// Store is the consumer storage interface for reporting (ISP).
type Store interface {
	Find(ctx context.Context, collection string, p prospectdb.Predicate) ([]prospectdb.Document, error)
}

// Dossier pipeline statuses, in funnel order. A dossier at a given stage has
// passed through every earlier one.
const (
	StatusNouveau  = "nouveau"
	StatusContacte = "contacte"
	StatusRDVFixe  = "rdv_fixe"
	StatusSoumis   = "soumis"
	StatusValide   = "valide"
	StatusSigne    = "signe"
)

var stageRank = map[string]int{
	StatusNouveau:  0,
	StatusContacte: 1,
	StatusRDVFixe:  2,
	StatusSoumis:   3,
	StatusValide:   4,
	StatusSigne:    5,
}

// Rates are the funnel conversion metrics. Each carries a has-data flag so
// an empty funnel stage renders as "no data" rather than 0%.
type Rates struct {
	Decrochage     stats.Metric `json:"decrochage"`
	Transformation stats.Metric `json:"transformation"`
	RDVHonore      stats.Metric `json:"rdvHonore"`
	Validation     stats.Metric `json:"validation"`
	Conversion     stats.Metric `json:"conversion"`
}

// Dashboard is the full pilotage payload.
type Dashboard struct {
	Rates          Rates               `json:"rates"`
	StatusCounts   []stats.Group       `json:"statusCounts"`
	Revenue        float64             `json:"revenue"`
	LatestSnapshot prospectdb.Document `json:"latestSnapshot,omitempty"`
}

// Service builds dashboard reports from the stored collections.
type Service struct {
	store Store
}

func New(store Store) *Service {
	return &Service{store: store}
}

// Dashboard assembles the full report. The latest snapshot is omitted, not
// an error, when no statistics have been recorded yet.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	dossiers, err := s.store.Find(ctx, "dossiers", nil)
	if err != nil {
		return Dashboard{}, err
	}
	rendezvous, err := s.store.Find(ctx, "rendezvous", nil)
	if err != nil {
		return Dashboard{}, err
	}
	offres, err := s.store.Find(ctx, "offres", nil)
	if err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{
		Rates:        computeRates(dossiers, rendezvous),
		StatusCounts: stats.GroupCountByField(dossiers, "statut"),
		Revenue:      stats.SumField(offres, "montant"),
	}

	snapshot, err := s.Latest(ctx)
	if err == nil {
		d.LatestSnapshot = snapshot
	} else if !errors.Is(err, stats.ErrEmptyInput) {
		return Dashboard{}, err
	}
	return d, nil
}

// Latest returns the most recent statistics snapshot by its date field.
// Returns stats.ErrEmptyInput when no snapshot exists.
func (s *Service) Latest(ctx context.Context) (prospectdb.Document, error) {
	snapshots, err := s.store.Find(ctx, "statistiques", nil)
	if err != nil {
		return nil, err
	}
	return stats.LatestByDate(snapshots, "date")
}

func computeRates(dossiers, rendezvous []prospectdb.Document) Rates {
	total := len(dossiers)
	reached := make([]int, len(stageRank))
	for _, doc := range dossiers {
		rank, ok := stageRank[strings.ToLower(prospectdb.StringValue(doc["statut"]))]
		if !ok {
			continue
		}
		for i := 0; i <= rank; i++ {
			reached[i]++
		}
	}

	honores := 0
	for _, rdv := range rendezvous {
		if honore, ok := rdv["honore"].(bool); ok && honore {
			honores++
		}
	}

	return Rates{
		Decrochage:     stats.RatioMetric(float64(reached[stageRank[StatusContacte]]), float64(total)),
		Transformation: stats.RatioMetric(float64(reached[stageRank[StatusRDVFixe]]), float64(reached[stageRank[StatusContacte]])),
		RDVHonore:      stats.RatioMetric(float64(honores), float64(len(rendezvous))),
		Validation:     stats.RatioMetric(float64(reached[stageRank[StatusValide]]), float64(reached[stageRank[StatusSoumis]])),
		Conversion:     stats.RatioMetric(float64(reached[stageRank[StatusSigne]]), float64(total)),
	}
}
