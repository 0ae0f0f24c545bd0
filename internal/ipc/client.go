package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"

	"gallerydl/internal/gallery"
	"gallerydl/internal/orchestrator"
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

// Enqueue submits a gallery job to the download queue.
func (c *Client) Enqueue(job gallery.Job) (*EnqueueResponse, error) {
	var resp EnqueueResponse
	if err := c.call("Enqueue", EnqueueRequest{Job: job}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StopGallery stops one gallery by id.
func (c *Client) StopGallery(galleryID string) (*StopGalleryResponse, error) {
	var resp StopGalleryResponse
	if err := c.call("StopGallery", StopGalleryRequest{GalleryID: galleryID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StopAll clears the queue and aborts all active downloads.
func (c *Client) StopAll() (*StopAllResponse, error) {
	var resp StopAllResponse
	if err := c.call("StopAll", StopAllRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueList returns the pending queue in order.
func (c *Client) QueueList() (*QueueListResponse, error) {
	var resp QueueListResponse
	if err := c.call("QueueList", QueueListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SettingsGet fetches the current runtime settings.
func (c *Client) SettingsGet() (*SettingsGetResponse, error) {
	var resp SettingsGetResponse
	if err := c.call("SettingsGet", SettingsGetRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SettingsSave replaces the runtime settings.
func (c *Client) SettingsSave(settings orchestrator.Settings) (*SettingsSaveResponse, error) {
	var resp SettingsSaveResponse
	if err := c.call("SettingsSave", SettingsSaveRequest{Settings: settings}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HistoryList returns all completed records.
func (c *Client) HistoryList() (*HistoryListResponse, error) {
	var resp HistoryListResponse
	if err := c.call("HistoryList", HistoryListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResumeList returns all resume records.
func (c *Client) ResumeList() (*ResumeListResponse, error) {
	var resp ResumeListResponse
	if err := c.call("ResumeList", ResumeListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HistoryExport writes the completed table to a file.
func (c *Client) HistoryExport(path string) (*HistoryExportResponse, error) {
	var resp HistoryExportResponse
	if err := c.call("HistoryExport", HistoryExportRequest{Path: path}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HistoryClear removes all completed records.
func (c *Client) HistoryClear() (*HistoryClearResponse, error) {
	var resp HistoryClearResponse
	if err := c.call("HistoryClear", HistoryClearRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.call("Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Events fetches bus events after the given sequence number.
func (c *Client) Events(req EventsRequest) (*EventsResponse, error) {
	var resp EventsResponse
	if err := c.call("Events", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StopDaemon requests daemon shutdown.
func (c *Client) StopDaemon() (*StopDaemonResponse, error) {
	var resp StopDaemonResponse
	if err := c.call("StopDaemon", StopDaemonRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.call("TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
