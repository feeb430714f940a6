// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
		verb  string
		args  []string
	}{
		{"hello", false, "", nil},
		{"", false, "", nil},
		{"/", true, "/", []string{}},
		{"/JOIN #Mesh", true, "/join", []string{"#Mesh"}},
		{"/msg alice hello there", true, "/msg", []string{"alice", "hello", "there"}},
		{"/msg alice  hi", true, "/msg", []string{"alice", "", "hi"}},
		{"/w ", true, "/w", []string{""}},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			inv, ok := Parse(tc.input)
			assert.Equal(t, tc.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tc.verb, inv.Verb)
			assert.Equal(t, tc.args, inv.Args)
		})
	}
}

func TestInvocationArgAndRest(t *testing.T) {
	inv, _ := Parse("/msg alice hello there")

	assert.Equal(t, "alice", inv.Arg(0))
	assert.Equal(t, "", inv.Arg(5))
	assert.Equal(t, "", inv.Arg(-1))
	assert.Equal(t, "hello there", inv.Rest(1))
	assert.Equal(t, "", inv.Rest(3))
}

func TestExtractCommandName(t *testing.T) {
	assert.Equal(t, "/join", ExtractCommandName("/join #mesh"))
	assert.Equal(t, "/w", ExtractCommandName("/w"))
	assert.Equal(t, "", ExtractCommandName("hello /w"))
}

func TestExtractMentions(t *testing.T) {
	assert.Equal(t, []string{"alice", "bob"}, extractMentions("hey @alice, @bob! and @alice again"))
	assert.Nil(t, extractMentions("no mentions @ here"))
}
