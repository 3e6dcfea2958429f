package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Istiyak4099/Airdrop/models"
)

func newProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or import business profiles",
	}
	cmd.AddCommand(newProfileShowCmd(a))
	cmd.AddCommand(newProfileImportCmd(a))
	return cmd
}

func newProfileShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <account-id>",
		Short: "Print the business profile of an account as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			profile, err := a.profiles.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if profile == nil {
				return fmt.Errorf("no business profile for account %s", args[0])
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(profile)
		},
	}
}

func newProfileImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <account-id> <file.yaml>",
		Short: "Merge a YAML business profile into the stored one",
		Long: `Merge a business profile written in YAML into the stored profile of an
account. Only the fields present in the file are written. Use "-" to read
from stdin.

Example file:
  companyName: Acme
  industry: Retail
  brandVoice:
    professionalism: left
    verbosity: neutral
    formality: right
  faqs:
    - question: Do you deliver?
      answer: Yes, nationwide.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := readProfile(cmd.InOrStdin(), args[1])
			if err != nil {
				return err
			}
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			if err := a.profiles.Save(cmd.Context(), args[0], profile); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported profile for account %s\n", args[0])
			return nil
		},
	}
}

// readProfile decodes and validates a YAML profile from path, or stdin for "-".
func readProfile(stdin io.Reader, path string) (models.BusinessProfile, error) {
	var profile models.BusinessProfile

	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return profile, fmt.Errorf("read profile: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&profile); err != nil && !errors.Is(err, io.EOF) {
		return profile, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if err := validator.New().Struct(profile); err != nil {
		return profile, fmt.Errorf("invalid profile %s: %w", path, err)
	}
	return profile, nil
}
