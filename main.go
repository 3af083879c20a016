package main

import (
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/pr1metine/ls-ccsc/internal/server"
)

func main() {
	commonlog.Configure(1, nil)

	s := server.New()
	s.Run()
}
