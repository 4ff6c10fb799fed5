package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prismatic-systems/raywalk/core/embed"
	"github.com/prismatic-systems/raywalk/core/graph"
	"github.com/prismatic-systems/raywalk/core/lookup"
	"github.com/prismatic-systems/raywalk/core/query"
)

// =============================================================================
// Query Command Constants
// =============================================================================

const (
	// QueryDefaultK is the default number of results.
	QueryDefaultK = 10

	// QueryDefaultRadius is the default cosine-distance radius.
	QueryDefaultRadius = 0.5

	// DefaultBoostWeight is the emphasis weight applied by --boost.
	DefaultBoostWeight = 2.0
)

// =============================================================================
// Query Command Flags
// =============================================================================

var (
	queryDB          string
	queryVersion     string
	queryK           int
	queryRadius      float64
	queryClusterK    int
	queryEmphasis    string
	queryBoost       []string
	queryJSON        bool
	queryInteractive bool
)

// =============================================================================
// Query Command
// =============================================================================

var queryCmd = &cobra.Command{
	Use:   "query <nn|analogy|radius|clusters|text> [args...]",
	Short: "Run similarity queries against a persisted snapshot",
	Long: `Query runs read-only operations against a unified-space snapshot.

Modes:
  nn <entity> [k]          nearest neighbors by cosine similarity
  analogy <a> <b> <c> [k]  rank by similarity to v(b) - v(a) + v(c)
  radius <entity> [r]      entities within cosine distance r
  clusters [k]             k-means partition of the space
  text <words...>          rank entities against encoded free text

Arguments that are not exact entity ids resolve through the full-text
lookup over names and descriptions when the graph files are available.

Examples:
  raywalk query nn ray_4 --k 5
  raywalk query analogy ray_1 ray_2 ray_3
  raywalk query radius ray_4 --radius 0.3 --emphasize ray_4=2,plane_4=2
  raywalk query --interactive`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().StringVar(&queryDB, "db", "", "Snapshot database path")
	queryCmd.Flags().StringVar(&queryVersion, "version", "", "Snapshot version (default: latest)")
	queryCmd.Flags().IntVarP(&queryK, "k", "k", QueryDefaultK, "Number of results")
	queryCmd.Flags().Float64Var(&queryRadius, "radius", QueryDefaultRadius, "Cosine-distance radius")
	queryCmd.Flags().IntVar(&queryClusterK, "clusters", 3, "Cluster count for the clusters mode")
	queryCmd.Flags().StringVar(&queryEmphasis, "emphasize", "", "Boost weights as id=weight,id=weight")
	queryCmd.Flags().StringSliceVar(&queryBoost, "boost", nil, "Entities to boost with the default emphasis weight")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "Output results as JSON")
	queryCmd.Flags().BoolVarP(&queryInteractive, "interactive", "i", false, "Start a query REPL")
}

// querySession holds everything one query invocation needs.
type querySession struct {
	engine   *query.Engine
	encoder  embed.Encoder
	resolver *lookup.Resolver
	emphasis map[string]float64
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	snap, err := openSnapshot(ctx, cfg, queryDB, queryVersion)
	if err != nil {
		return err
	}

	sess := &querySession{engine: query.New(snap)}
	if sess.encoder, err = cfg.Encoder(ctx, nil); err != nil {
		return err
	}
	if sess.emphasis, err = parseEmphasis(queryEmphasis); err != nil {
		return err
	}
	for _, id := range queryBoost {
		if sess.emphasis == nil {
			sess.emphasis = make(map[string]float64)
		}
		if _, ok := sess.emphasis[id]; !ok {
			sess.emphasis[id] = DefaultBoostWeight
		}
	}
	// A missing graph only disables fuzzy name resolution; exact ids
	// still work.
	if st, err := graph.Load(cfg.Graph.Entities, cfg.Graph.Triples); err == nil {
		if sess.resolver, err = lookup.NewResolver(st); err == nil {
			defer sess.resolver.Close()
		}
	}

	if queryInteractive {
		return runREPL(cmd, sess)
	}
	if len(args) == 0 {
		return fmt.Errorf("query mode required (nn, analogy, radius, clusters, text)")
	}
	return sess.dispatch(ctx, cmd.OutOrStdout(), args)
}

// dispatch routes one parsed query line.
func (s *querySession) dispatch(ctx context.Context, out io.Writer, args []string) error {
	mode, rest := args[0], args[1:]
	switch mode {
	case "nn":
		if len(rest) < 1 {
			return fmt.Errorf("nn: entity required")
		}
		id, err := s.resolve(rest[0])
		if err != nil {
			return err
		}
		k := intArg(rest, 1, queryK)
		matches, err := s.scorer().NearestNeighbors(id, k)
		if err != nil {
			return err
		}
		return writeMatches(out, matches)

	case "analogy":
		if len(rest) < 3 {
			return fmt.Errorf("analogy: three entities required")
		}
		ids := make([]string, 3)
		for i := range 3 {
			id, err := s.resolve(rest[i])
			if err != nil {
				return err
			}
			ids[i] = id
		}
		k := intArg(rest, 3, queryK)
		matches, err := s.scorer().Analogy(ids[0], ids[1], ids[2], k)
		if err != nil {
			return err
		}
		return writeMatches(out, matches)

	case "radius":
		if len(rest) < 1 {
			return fmt.Errorf("radius: entity required")
		}
		id, err := s.resolve(rest[0])
		if err != nil {
			return err
		}
		r := floatArg(rest, 1, queryRadius)
		matches, err := s.scorer().WithinRadius(id, r)
		if err != nil {
			return err
		}
		return writeMatches(out, matches)

	case "clusters":
		k := intArg(rest, 0, queryClusterK)
		cl, err := s.engine.Clusters(ctx, k, s.engine.Snapshot().Params.Train.Seed)
		if err != nil {
			return err
		}
		return writeClusters(out, s.engine.Snapshot().IDs, cl)

	case "text":
		if len(rest) == 0 {
			return fmt.Errorf("text: query words required")
		}
		matches, err := s.engine.NearestToText(ctx, s.encoder, strings.Join(rest, " "), queryK)
		if err != nil {
			return err
		}
		return writeMatches(out, matches)

	default:
		return fmt.Errorf("unknown query mode %q", mode)
	}
}

// scorer returns the emphasized view when boosts are configured.
func (s *querySession) scorer() matchScorer {
	if len(s.emphasis) > 0 {
		return s.engine.Emphasize(s.emphasis)
	}
	return s.engine
}

// matchScorer is satisfied by both the engine and its emphasizer.
type matchScorer interface {
	NearestNeighbors(id string, k int) ([]query.Match, error)
	Analogy(a, b, c string, k int) ([]query.Match, error)
	WithinRadius(id string, radius float64) ([]query.Match, error)
}

// resolve maps an argument to an entity id: exact ids pass through,
// anything else goes to the lookup index.
func (s *querySession) resolve(arg string) (string, error) {
	if _, ok := s.engine.Snapshot().Index(arg); ok {
		return arg, nil
	}
	if s.resolver == nil {
		return "", &graph.UnknownEntityError{ID: arg}
	}
	candidates, err := s.resolver.Resolve(arg, 1)
	if err != nil {
		return "", err
	}
	if len(candidates) == 0 {
		return "", &graph.UnknownEntityError{ID: arg}
	}
	return candidates[0].ID, nil
}

func intArg(args []string, i, fallback int) int {
	if i < len(args) {
		if n, err := strconv.Atoi(args[i]); err == nil {
			return n
		}
	}
	return fallback
}

func floatArg(args []string, i int, fallback float64) float64 {
	if i < len(args) {
		if f, err := strconv.ParseFloat(args[i], 64); err == nil {
			return f
		}
	}
	return fallback
}

func writeMatches(out io.Writer, matches []query.Match) error {
	if queryJSON {
		return json.NewEncoder(out).Encode(matches)
	}
	if len(matches) == 0 {
		fmt.Fprintln(out, "no matches")
		return nil
	}
	for i, m := range matches {
		kind := string(m.Kind)
		if kind == "" {
			kind = "-"
		}
		fmt.Fprintf(out, "%3d. %-24s %-14s %.4f\n", i+1, m.ID, kind, m.Score)
	}
	return nil
}

func writeClusters(out io.Writer, ids []string, cl *query.Clustering) error {
	if queryJSON {
		return json.NewEncoder(out).Encode(cl)
	}
	for c := range cl.K {
		members := cl.Members(ids, c)
		fmt.Fprintf(out, "cluster %d (%d members): %s\n", c, len(members), strings.Join(members, ", "))
	}
	return nil
}
