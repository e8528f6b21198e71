package api

import (
	"github.com/muhammadolammi/jobmatchclient/internal/gateway"
)

func requestJSON(method, path string, body, result any) gateway.Request {
	return gateway.Request{Method: method, Path: path, Body: body, Result: result}
}
