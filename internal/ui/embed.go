package ui

import "embed"

// StaticFS embeds the chart scripts served under /static/.
//
//go:embed static/*
var StaticFS embed.FS
