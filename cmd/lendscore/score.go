package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/opensource-finance/lendscore/internal/domain"
	"github.com/opensource-finance/lendscore/internal/scoring"
)

func scoreCommand() *cli.Command {
	return &cli.Command{
		Name:      "score",
		Usage:     "Score the applicant profiles in a YAML or JSON file",
		ArgsUsage: " ",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Profiles file; a single applicant or a list (- for stdin)",
				Required: true,
			},
			formatFlag,
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "Reject invalid profiles instead of scoring them as given",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			initLogging(os.Stderr, domain.LoggingConfig{Format: "text"}, cmd.Bool("debug"))

			var in io.Reader = os.Stdin
			if path := cmd.String("file"); path != "-" {
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("open profiles: %w", err)
				}
				defer f.Close()
				in = f
			}

			applicants, err := readProfiles(in)
			if err != nil {
				return err
			}
			results, err := scoreAll(scoring.Default(), applicants, cmd.Bool("strict"))
			if err != nil {
				return err
			}
			return writeOutput(os.Stdout, cmd.String("format"), results)
		},
	}
}

func policyCommand() *cli.Command {
	return &cli.Command{
		Name:  "policy",
		Usage: "Print the scoring constants, factor rules and tiers",
		Flags: []cli.Flag{formatFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return writeOutput(os.Stdout, cmd.String("format"), scoring.Default().Policy())
		},
	}
}

// readProfiles decodes one applicant or a sequence of them. JSON input is
// accepted as YAML.
func readProfiles(r io.Reader) ([]domain.Profiles, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	if doc.Kind == yaml.DocumentNode && len(doc.Content) == 1 && doc.Content[0].Kind == yaml.SequenceNode {
		var list []domain.Profiles
		if err := doc.Decode(&list); err != nil {
			return nil, fmt.Errorf("decode profiles: %w", err)
		}
		return list, nil
	}

	var one domain.Profiles
	if err := doc.Decode(&one); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	return []domain.Profiles{one}, nil
}

// scoreAll scores every applicant. In strict mode the first invalid
// applicant aborts with its position.
func scoreAll(engine *scoring.Engine, applicants []domain.Profiles, strict bool) ([]domain.ScoringResult, error) {
	results := make([]domain.ScoringResult, 0, len(applicants))
	for i, p := range applicants {
		if !strict {
			results = append(results, engine.Score(p.OffChain, p.OnChain, p.Loyalty, p.TermMonths))
			continue
		}
		r, err := engine.ScoreProfiles(p)
		if err != nil {
			return nil, fmt.Errorf("applicant %d: %w", i, err)
		}
		results = append(results, r)
	}
	return results, nil
}

func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case formatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		_, err := w.Write(buf.Bytes())
		return err
	case formatJSON, "":
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json (non-finite values need --format yaml): %w", err)
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
