// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package client glues the interpreter, the collaborators and the mesh
// transport into one front end shared by the TUI and the line-mode host.
//
// Submit routes a line: scope directives (":pub", ":ch", ":pm", ":geo")
// are applied here, slash commands go to the commands.Processor and
// everything else is sent as chat text. HandleFrame applies inbound
// traffic. Changes signals the host to redraw.
package client
