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

// Ping checks daemon liveness.
func (c *Client) Ping() (*PingResponse, error) {
	var resp PingResponse
	if err := c.client.Call("Numcheck.Ping", PingRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Numcheck.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Sessions lists stored sessions.
func (c *Client) Sessions() (*SessionsResponse, error) {
	var resp SessionsResponse
	if err := c.client.Call("Numcheck.Sessions", SessionsRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RemoveSession evicts a stored session by name.
func (c *Client) RemoveSession(name string) (*RemoveSessionResponse, error) {
	var resp RemoveSessionResponse
	if err := c.client.Call("Numcheck.RemoveSession", RemoveSessionRequest{Name: name}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Pair starts a pairing login and returns the display code.
func (c *Client) Pair(phone string) (*PairResponse, error) {
	var resp PairResponse
	if err := c.client.Call("Numcheck.Pair", PairRequest{Phone: phone}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QR fetches the pending QR login payload.
func (c *Client) QR() (*QRResponse, error) {
	var resp QRResponse
	if err := c.client.Call("Numcheck.QR", QRRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Verify runs a verification job on the daemon.
func (c *Client) Verify(kind string, ids []string) (*VerifyResponse, error) {
	var resp VerifyResponse
	if err := c.client.Call("Numcheck.Verify", VerifyRequest{Kind: kind, IDs: ids}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Range runs a range check over generated prefix+counter identifiers.
func (c *Client) Range(prefix string, start, end int) (*VerifyResponse, error) {
	var resp VerifyResponse
	if err := c.client.Call("Numcheck.Range", RangeRequest{Prefix: prefix, Start: start, End: end}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Appeal sends one unblock appeal.
func (c *Client) Appeal(id string) (*AppealResponse, error) {
	var resp AppealResponse
	if err := c.client.Call("Numcheck.Appeal", AppealRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History lists recent jobs.
func (c *Client) History(limit int) (*HistoryResponse, error) {
	var resp HistoryResponse
	if err := c.client.Call("Numcheck.History", HistoryRequest{Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Access mutates or reads the access stores.
func (c *Client) Access(req AccessRequest) (*AccessResponse, error) {
	var resp AccessResponse
	if err := c.client.Call("Numcheck.Access", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Template mutates or reads the appeal template store.
func (c *Client) Template(req TemplateRequest) (*TemplateResponse, error) {
	var resp TemplateResponse
	if err := c.client.Call("Numcheck.Template", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UserInfo reads one user's record, or lists known users with an empty id.
func (c *Client) UserInfo(id string) (*UserInfoResponse, error) {
	var resp UserInfoResponse
	if err := c.client.Call("Numcheck.UserInfo", UserInfoRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("Numcheck.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
