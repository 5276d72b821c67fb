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

package main

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuts-foundation/go-openid4vci/openid4vci"
)

func TestResolveCommand(t *testing.T) {
	t.Run("error - offer URI without offer params", func(t *testing.T) {
		cmd := newRootCommand()
		cmd.SetOut(io.Discard)
		cmd.SetErr(io.Discard)
		cmd.SetArgs([]string{"resolve", "openid-credential-offer://?foo=bar"})

		err := cmd.Execute()

		assert.ErrorIs(t, err, openid4vci.Error{Code: openid4vci.MissingCredentialOfferParam})
	})
	t.Run("error - missing argument", func(t *testing.T) {
		cmd := newRootCommand()
		cmd.SetOut(io.Discard)
		cmd.SetErr(io.Discard)
		cmd.SetArgs([]string{"resolve"})

		err := cmd.Execute()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "arg")
	})
}
