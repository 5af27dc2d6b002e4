package utils

import (
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

type AppState struct {
	Config *Config
	When   *when.Parser

	// filled by metric.Init, nil until then
	Metric *Metric
}

func NewAppState() *AppState {
	as := &AppState{}

	// date parser
	as.When = when.New(nil)
	as.When.Add(en.All...)
	as.When.Add(common.All...)

	// env
	as.Config = NewConfig()

	return as
}
