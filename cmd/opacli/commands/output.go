package commands

import (
	"fmt"

	"github.com/opatomic/opago/client"
	"github.com/opatomic/opago/cmdparse"
	"github.com/opatomic/opago/so"
)

// printResponse renders a completed request's result or error object
// in the same syntax cmdparse reads, so a response can be copy-pasted
// back as the next command's argument.
func printResponse(req *client.Request, cfg *Config) {
	resp := req.Response()
	if req.ResponseIsErr() {
		rpcErr, err := req.Err()
		if err != nil {
			fmt.Printf("! malformed error response: %v\n", err)
			return
		}
		if rpcErr.Msg != "" {
			fmt.Printf("! [%d] %s\n", rpcErr.Code, rpcErr.Msg)
		} else {
			fmt.Printf("! %d\n", rpcErr.Code)
		}
		return
	}
	v, _, err := so.Decode(resp)
	if err != nil {
		fmt.Printf("! malformed result: %v\n", err)
		return
	}
	fmt.Println(cmdparse.Stringify(v, cfg.Indent))
}
