package gateway

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/fpt/ping-relay/pkg/logger"
)

// InstallLogHook routes discordgo's package logger through the log formatter.
func InstallLogHook(log *logger.Logger) {
	gw := log.WithComponent("discordgo")
	discordgo.Logger = func(msgL, caller int, format string, a ...interface{}) {
		gw.Emit(logger.FormatGatewayEvent(msgL, callerName(caller+2), fmt.Sprintf(format, a...)))
	}
}

// callerName names the function skip frames above it, as discordgo does for its own log lines.
func callerName(skip int) string {
	pc, _, _, ok := runtime.Caller(skip)
	if !ok {
		return "Gateway"
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "Gateway"
	}
	name := fn.Name()
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}
