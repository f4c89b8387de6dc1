// vetctl consulta la API desde la terminal con el mismo contrato de listas
// que usan las pantallas.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"vet-clinic/internal/client"
	"vet-clinic/internal/platform/pagination"
)

var (
	baseURL  string
	token    string
	userID   string
	role     string
	clinicID string
	timeout  time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "vetctl",
	Short:         "Cliente de línea de comandos de la API de clínicas",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&baseURL, "base-url", envOr("VETCTL_BASE_URL", "http://localhost:8080"), "URL base de la API")
	pf.StringVar(&token, "token", os.Getenv("VETCTL_TOKEN"), "bearer token (AUTH_MODE jwt/iam)")
	pf.StringVar(&userID, "user", os.Getenv("VETCTL_USER"), "X-Debug-User-ID (modo dev)")
	pf.StringVar(&role, "role", os.Getenv("VETCTL_ROLE"), "X-Debug-Role (modo dev)")
	pf.StringVar(&clinicID, "clinic", os.Getenv("VETCTL_CLINIC"), "X-Debug-Clinic-ID (modo dev)")
	pf.DurationVar(&timeout, "timeout", 10*time.Second, "timeout por request")

	rootCmd.AddCommand(listCmd(), usageCmd(), statsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", client.ErrorMessage(err))
		os.Exit(1)
	}
}

func newClient() (*client.Client, error) {
	var opts []client.Option
	if token != "" {
		opts = append(opts, client.WithToken(token))
	} else if userID != "" {
		opts = append(opts, client.WithDebugUser(userID, role, clinicID))
	}
	return client.New(baseURL, timeout, opts...)
}

// lister adapta cada recurso a una función que devuelve items genéricos.
type lister func(ctx context.Context, c *client.Client, q pagination.Query) (client.ListResult[any], error)

func listerFor[T any](fetch func(*client.Client, context.Context, pagination.Query) (client.ListResult[T], error)) lister {
	return func(ctx context.Context, c *client.Client, q pagination.Query) (client.ListResult[any], error) {
		r, err := fetch(c, ctx, q)
		if err != nil {
			return client.ListResult[any]{}, err
		}
		items := make([]any, 0, len(r.Items))
		for _, it := range r.Items {
			items = append(items, it)
		}
		return client.ListResult[any]{Items: items, Page: r.Page, Limit: r.Limit, TotalPages: r.TotalPages, TotalCount: r.TotalCount}, nil
	}
}

var resources = map[string]lister{
	"owners":  listerFor((*client.Client).Owners),
	"pets":    listerFor((*client.Client).Pets),
	"visits":  listerFor((*client.Client).Visits),
	"clinics": listerFor((*client.Client).Clinics),
	"users":   listerFor((*client.Client).Users),
}

func listCmd() *cobra.Command {
	var (
		page    int
		limit   int
		search  string
		filters []string
	)

	cmd := &cobra.Command{
		Use:       "list <owners|pets|visits|clinics|users>",
		Short:     "Lista una página de un recurso",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"owners", "pets", "visits", "clinics", "users"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fetch, ok := resources[strings.ToLower(args[0])]
			if !ok {
				return fmt.Errorf("unknown resource %q", args[0])
			}

			q := pagination.New().WithSearch(search).WithLimit(limit)
			for _, f := range filters {
				k, v, ok := strings.Cut(f, "=")
				if !ok {
					return fmt.Errorf("filter %q: expected key=value", f)
				}
				q = q.WithFilter(strings.TrimSpace(k), strings.TrimSpace(v))
			}
			// WithFilter y WithSearch vuelven a página 1; la página va al final
			q = q.WithPage(page)

			c, err := newClient()
			if err != nil {
				return err
			}
			res, err := fetch(cmd.Context(), c, q)
			if err != nil {
				return err
			}
			if res.IsEmpty() {
				fmt.Fprintln(cmd.OutOrStdout(), "no results")
				return nil
			}
			if err := printJSON(cmd.OutOrStdout(), res.Items); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "page %d/%d (%d total)\n", res.Page, res.TotalPages, res.TotalCount)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "página (1-based)")
	cmd.Flags().IntVar(&limit, "limit", pagination.DefaultLimit, "items por página")
	cmd.Flags().StringVar(&search, "search", "", "texto libre")
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "filtro key=value (repetible; ALL = sin filtro)")
	return cmd
}

func usageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "usage <clinicID>",
		Short: "Uso de la cuota de recordatorios del ciclo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			u, err := c.ReminderUsage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), u)
		},
	}
}

func statsCmd() *cobra.Command {
	var clinic string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Totales del dashboard",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			st, err := c.DashboardStats(cmd.Context(), clinic)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), st)
		},
	}
	cmd.Flags().StringVar(&clinic, "clinic-id", "", "clínica (solo ADMIN)")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
