package main

import (
	"context"
	"fmt"
	"io"

	"github.com/jrsteele09/go-oidc-grants/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type seededApplication struct {
	ClientID               string   `yaml:"clientId"`
	Type                   string   `yaml:"type"`
	ConsentType            string   `yaml:"consentType"`
	Permissions            []string `yaml:"permissions"`
	Requirements           []string `yaml:"requirements,omitempty"`
	RedirectURIs           []string `yaml:"redirectUris,omitempty"`
	PostLogoutRedirectURIs []string `yaml:"postLogoutRedirectUris,omitempty"`
}

type seededScope struct {
	Name      string   `yaml:"name"`
	Resources []string `yaml:"resources,omitempty"`
}

type seedReport struct {
	Applications []seededApplication `yaml:"applications"`
	Scopes       []seededScope       `yaml:"scopes"`
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Validate the OIDC config file and print the applications and scopes it registers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printSeed(cmd.Context(), config.New(), cmd.OutOrStdout())
		},
	}
}

// printSeed seeds in-memory stores from the config file and writes what was registered.
func printSeed(ctx context.Context, c config.Config, out io.Writer) error {
	oidcConfig, err := loadOIDCConfig(c)
	if err != nil {
		return err
	}
	s := newStores()
	if err := seed(ctx, oidcConfig, s); err != nil {
		return err
	}

	report := seedReport{}
	apps, err := s.apps.List(ctx)
	if err != nil {
		return err
	}
	for _, app := range apps {
		report.Applications = append(report.Applications, seededApplication{
			ClientID:               app.ClientID,
			Type:                   string(app.Type),
			ConsentType:            string(app.ConsentType),
			Permissions:            app.Permissions,
			Requirements:           app.Requirements,
			RedirectURIs:           app.RedirectURIs,
			PostLogoutRedirectURIs: app.PostLogoutRedirectURIs,
		})
	}
	scopeList, err := s.scopes.List(ctx)
	if err != nil {
		return err
	}
	for _, scope := range scopeList {
		report.Scopes = append(report.Scopes, seededScope{Name: scope.Name, Resources: scope.Resources})
	}

	encoder := yaml.NewEncoder(out)
	encoder.SetIndent(2)
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("failed to write seed report: %w", err)
	}
	return encoder.Close()
}
