// Package autoload configures the global logger from the environment as a
// side effect of being imported:
//
//	import _ "github.com/siravitp/agentic-recsys/pkg/logger/autoload"
package autoload

import (
	configx "github.com/siravitp/agentic-recsys/pkg/config"
	logx "github.com/siravitp/agentic-recsys/pkg/logger"
)

func init() {
	cfg := configx.MustNew[logx.Config]("LOG")
	logx.Init(*cfg)
}
