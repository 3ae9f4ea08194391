package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/utafrali/puros/internal/client"
	apperrors "github.com/utafrali/puros/pkg/errors"
	"github.com/utafrali/puros/pkg/httpclient"
	"github.com/utafrali/puros/pkg/middleware"
)

var seedCigars = []string{
	"Padron 1964 Anniversary Maduro",
	"Arturo Fuente Opus X",
	"Cohiba Behike 52",
	"Montecristo No. 2",
	"Oliva Serie V Melanio",
	"My Father Le Bijou 1922",
	"Liga Privada No. 9",
	"Romeo y Julieta Churchill",
	"Davidoff Winston Churchill",
	"Partagas Serie D No. 4",
	"Hoyo de Monterrey Epicure No. 2",
	"Ashton VSG",
}

var seedNotes = []string{
	"Even burn, cocoa and cedar through the first third.",
	"Peppery start that settles into leather and espresso.",
	"Tight draw early on, opened up after an inch.",
	"Creamy and mild, great with a morning coffee.",
	"Complex finish, would buy a box.",
	"",
}

type seedOptions struct {
	apiURL  string
	users   int
	reviews int
	seed    int64
}

// NewSeedCommand populates a running API with demo users, reviews, follows
// and likes through the public endpoints.
func NewSeedCommand() *cobra.Command {
	var opts seedOptions

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate a running Puros API with demo data",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.IsProduction() {
				return fmt.Errorf("refusing to seed a production environment")
			}
			verifier := middleware.NewJWTVerifier(cfg.JWTSecret, cfg.JWTAudience)

			summary, err := seed(cmd.Context(), opts, verifier, log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d users, %d reviews, %d follows, %d likes\n",
				summary.users, summary.reviews, summary.follows, summary.likes)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.apiURL, "api-url", "http://localhost:8080", "base URL of the running API")
	cmd.Flags().IntVar(&opts.users, "users", 5, "number of demo users")
	cmd.Flags().IntVar(&opts.reviews, "reviews", 20, "number of reviews to publish")
	cmd.Flags().Int64Var(&opts.seed, "seed", 1, "random seed")

	return cmd
}

type seedSummary struct {
	users, reviews, follows, likes int
}

func seed(ctx context.Context, opts seedOptions, verifier *middleware.JWTVerifier, log *slog.Logger) (seedSummary, error) {
	var summary seedSummary
	if opts.users < 1 {
		return summary, fmt.Errorf("--users must be at least 1")
	}
	rng := rand.New(rand.NewSource(opts.seed)) // #nosec G404 -- demo data

	doer := httpclient.New(httpclient.DefaultConfig())
	clients := make([]*client.Client, opts.users)
	for i := range clients {
		viewer := middleware.Viewer{
			ID:    fmt.Sprintf("seed-user-%d", i+1),
			Email: fmt.Sprintf("seed-user-%d@example.com", i+1),
		}
		tok, err := verifier.Sign(viewer, time.Hour)
		if err != nil {
			return summary, fmt.Errorf("sign token for %s: %w", viewer.ID, err)
		}
		clients[i] = client.New(opts.apiURL, doer, func(context.Context) string { return tok }, log)

		if _, err := clients[i].EnsureProfile(ctx); err != nil {
			return summary, fmt.Errorf("ensure profile %s: %w", viewer.ID, err)
		}
		summary.users++
	}

	// Everyone follows the next user round the ring.
	for i, c := range clients {
		if len(clients) < 2 {
			break
		}
		target := fmt.Sprintf("seed-user-%d", (i+1)%len(clients)+1)
		if _, err := c.Follow(ctx, target); err != nil && !errors.Is(err, apperrors.ErrAlreadyExists) {
			return summary, fmt.Errorf("follow %s: %w", target, err)
		}
		summary.follows++
	}

	today := time.Now().UTC()
	var reviewIDs []string
	for i := 0; i < opts.reviews; i++ {
		author := clients[rng.Intn(len(clients))]
		review, err := author.CreateReview(ctx, client.ReviewInput{
			CigarName:  seedCigars[rng.Intn(len(seedCigars))],
			Rating:     float64(rng.Intn(9)+2) / 2,
			Notes:      seedNotes[rng.Intn(len(seedNotes))],
			ReviewDate: today.AddDate(0, 0, -rng.Intn(365)).Format("2006-01-02"),
		})
		if err != nil {
			return summary, fmt.Errorf("create review: %w", err)
		}
		reviewIDs = append(reviewIDs, review.ID)
		summary.reviews++
	}

	for _, id := range reviewIDs {
		for _, c := range clients {
			if rng.Intn(3) != 0 {
				continue
			}
			if _, err := c.Like(ctx, id); err != nil {
				if errors.Is(err, apperrors.ErrAlreadyExists) {
					continue
				}
				return summary, fmt.Errorf("like review %s: %w", id, err)
			}
			summary.likes++
		}
	}

	return summary, nil
}
