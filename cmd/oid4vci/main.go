/*
 * Copyright (C) 2024 Nuts community
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 *
 */

// Command oid4vci is a small debugging tool for the OpenID4VCI credential offer flow:
// it resolves a credential offer URI and prints the validated result as JSON.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nuts-foundation/go-openid4vci/openid4vci"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "oid4vci",
		Short:        "OpenID4VCI wallet-side debugging tool",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(newResolveCommand())
	return rootCmd
}

func newResolveCommand() *cobra.Command {
	var timeout time.Duration
	var verbose bool
	cmd := &cobra.Command{
		Use:   "resolve <credential-offer-uri>",
		Short: "Resolve a credential offer URI into a validated credential offer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
			httpClient := &http.Client{Timeout: timeout}
			resolver := openid4vci.NewOfferResolver(httpClient)
			offer, err := resolver.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			encoded, err := json.MarshalIndent(offer, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "HTTP timeout for metadata and offer fetches")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	return cmd
}
