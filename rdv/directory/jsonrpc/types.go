// Package jsonrpc talks to a directory service over JSON-RPC.
//
// Requests are POSTed to <url>/rpc as {"method", "params": [args], "id"}.
// The service name is "directory" and its methods are Add, List and Remove.
package jsonrpc

const (
	ServiceName = "directory"

	MethodAdd    = ServiceName + ".Add"
	MethodList   = ServiceName + ".List"
	MethodRemove = ServiceName + ".Remove"

	StatusSuccess = "success"
	StatusError   = "error"
)

// EntriesArgs is the request of directory.List.
type EntriesArgs struct {
	Name string
}

// EntriesReply is the response of directory.List.
type EntriesReply struct {
	Name    string
	Entries []string
}

// EntryArgs is the request of directory.Add and directory.Remove.
type EntryArgs struct {
	Name  string
	Entry string
	Mode  string `json:",omitempty"`
}

// StatusReply is the response of directory.Add and directory.Remove.
type StatusReply struct {
	Status string
}
