package main

import (
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/rushteam/gameark/core"
)

func newRecommendCmd(load loadConfigFunc) *cobra.Command {
	var (
		input  string
		n      int
		bundle bool
	)
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Run one recommendation and print JSON",
		Long: `Read a preference payload (JSON) from a file or stdin and print the recommendations.

Examples:
  gameark recommend -f prefs.json
  echo '{"selectedGames":["Catan"]}' | gameark recommend -n 5
  gameark recommend -f prefs.json --bundle | jq '.more_matches'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			prefs, err := readPreferences(cmd.InOrStdin(), input)
			if err != nil {
				return err
			}

			engine, cleanup, err := buildEngine(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			var out any
			if bundle {
				out = engine.Bundle(cmd.Context(), "", prefs)
			} else {
				if n <= 0 {
					n = cfg.Recommend.MainSize
				}
				out = engine.Recommend(cmd.Context(), prefs, n)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVarP(&input, "file", "f", "-", "Preference payload file ('-' for stdin)")
	cmd.Flags().IntVarP(&n, "num", "n", 0, "Number of recommendations (default: recommend.main_size)")
	cmd.Flags().BoolVar(&bundle, "bundle", false, "Print the full bundle (main, top rated, newest, more matches)")
	return cmd
}

// readPreferences 读取并校验偏好载荷；path 为 "-" 或空时读 stdin。
func readPreferences(stdin io.Reader, path string) (*core.Preferences, error) {
	r := stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(io.LimitReader(r, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read preferences: %w", err)
	}
	var prefs core.Preferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}
	if err := validator.New().Struct(&prefs); err != nil {
		return nil, fmt.Errorf("invalid preferences: %w", err)
	}
	return &prefs, nil
}
