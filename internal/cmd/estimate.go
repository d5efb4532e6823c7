package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vbonduro/dishcarbon/internal/domain"
	"github.com/vbonduro/dishcarbon/internal/estimation"
	"github.com/vbonduro/dishcarbon/internal/service"
	"github.com/vbonduro/dishcarbon/internal/tui"
)

const cliSessionID = "cli"

func newEstimateCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "estimate <dish name>",
		Short: "Estimate the carbon footprint of a dish by name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := service.NewEstimationService(a.client(), nil, nil, a.logger)
			result, err := svc.EstimateDish(cmd.Context(), cliSessionID, strings.Join(args, " "))
			return printOutcome(cmd, domain.MethodText, result, err, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw result as JSON")
	return cmd
}

func newEstimateImageCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "estimate-image <path>",
		Short: "Estimate the carbon footprint of a dish from a photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := tui.LoadImage(args[0])
			if err != nil {
				return err
			}
			svc := service.NewEstimationService(a.client(), nil, nil, a.logger)
			result, err := svc.EstimateImage(cmd.Context(), cliSessionID, img)
			return printOutcome(cmd, domain.MethodImage, result, err, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw result as JSON")
	return cmd
}

// printOutcome renders a one-shot estimation the same way the result slot would.
func printOutcome(cmd *cobra.Command, method domain.Method, result *domain.EstimationResult, err error, asJSON bool) error {
	if err != nil {
		var verr *estimation.ValidationError
		if errors.As(err, &verr) {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), tui.RenderDisplay(estimation.Display{Error: err.Error(), Source: method}))
		return err
	}
	if asJSON {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	fmt.Fprintln(cmd.OutOrStdout(), tui.RenderDisplay(estimation.Display{Result: result, Source: method}))
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newHealthCmd(a *app) *cobra.Command {
	var probe bool
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that the estimation backend is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := a.client()
			h, err := client.Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("backend %s is unhealthy: %w", client.BaseURL(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s)\n", client.BaseURL(), h.Status, h.Service)
			if !probe {
				return nil
			}
			msg, err := client.Test(cmd.Context())
			if err != nil {
				return fmt.Errorf("api test probe: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "api: %s\n", msg.Message)
			return nil
		},
	}
	cmd.Flags().BoolVar(&probe, "probe", false, "also call the backend's /api/test endpoint")
	return cmd
}
