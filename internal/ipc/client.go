package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) call(method string, req, resp any) error {
	return c.client.Call(ServiceName+"."+method, req, resp)
}

// Status retrieves the daemon status. checkOracle probes the classifier oracle.
func (c *Client) Status(checkOracle bool) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.call("Status", StatusRequest{CheckOracle: checkOracle}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListFolders returns the persisted watch folders.
func (c *Client) ListFolders() (*ListFoldersResponse, error) {
	var resp ListFoldersResponse
	if err := c.call("ListFolders", ListFoldersRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddFolder starts watching path.
func (c *Client) AddFolder(path string) (*AddFolderResponse, error) {
	var resp AddFolderResponse
	if err := c.call("AddFolder", AddFolderRequest{Path: path}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RemoveFolder stops watching path.
func (c *Client) RemoveFolder(path string) (*RemoveFolderResponse, error) {
	var resp RemoveFolderResponse
	if err := c.call("RemoveFolder", RemoveFolderRequest{Path: path}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Rescan re-reports files in path, or in every folder when path is empty.
func (c *Client) Rescan(path string) (*RescanResponse, error) {
	var resp RescanResponse
	if err := c.call("Rescan", RescanRequest{Path: path}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History returns up to limit recorded actions.
func (c *Client) History(limit int) (*HistoryResponse, error) {
	var resp HistoryResponse
	if err := c.call("History", HistoryRequest{Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Undo reverses the most recent action.
func (c *Client) Undo() (*UndoResponse, error) {
	var resp UndoResponse
	if err := c.call("Undo", UndoRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stats returns lifetime counters.
func (c *Client) Stats() (*StatsResponse, error) {
	var resp StatsResponse
	if err := c.call("Stats", StatsRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Activity returns up to limit recent events.
func (c *Client) Activity(limit int) (*ActivityResponse, error) {
	var resp ActivityResponse
	if err := c.call("Activity", ActivityRequest{Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Classify previews the classification of path.
func (c *Client) Classify(path string) (*ClassifyResponse, error) {
	var resp ClassifyResponse
	if err := c.call("Classify", ClassifyRequest{Path: path}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logs fetches daemon log events.
func (c *Client) Logs(req LogsRequest) (*LogsResponse, error) {
	var resp LogsResponse
	if err := c.call("Logs", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
