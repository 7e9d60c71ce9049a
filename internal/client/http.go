package client

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// execute runs a fasthttp request honoring the context deadline when one is
// set, falling back to the client's default timeout otherwise.
func execute(httpClient *fasthttp.Client, ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response, timeout time.Duration) error {
	if deadline, ok := ctx.Deadline(); ok {
		return httpClient.DoDeadline(req, resp, deadline)
	}
	return httpClient.DoTimeout(req, resp, timeout)
}
