package ros

import (
	"bytes"
	"sync"
)

// Client is a service-client entity. Call hands the request to the
// RMW handle's SendRequest, then blocks the calling goroutine
// until the matching response is taken by the Executor's dispatch of
// this entity and handed back over a private channel.
type Client struct {
	node    *defaultNode
	name    string
	srvType ServiceType
	handle  ClientHandle
	group   *CallbackGroup
	logger  Logger

	mu      sync.Mutex
	pending map[uint64]chan []byte
}

func (c *Client) Name() string { return c.name }

func (c *Client) isReady() bool { return c.handle.isReady() }

// Call sends req and blocks until the matching response arrives, then
// deserializes it into a fresh Service value of this client's type.
func (c *Client) Call(req Service) (Service, error) {
	var buf bytes.Buffer
	if err := req.ReqMessage().Serialize(&buf); err != nil {
		return nil, err
	}
	requestID, err := c.handle.SendRequest(buf.Bytes())
	if err != nil {
		return nil, err
	}

	ch := make(chan []byte, 1)
	c.mu.Lock()
	c.pending[requestID] = ch
	c.mu.Unlock()

	payload := <-ch
	resp := c.srvType.NewService()
	if err := resp.ResMessage().Deserialize(bytes.NewReader(payload)); err != nil {
		return nil, err
	}
	return resp, nil
}

// execute is invoked by the Executor once this client's handle reports
// a ready response. It scans the outstanding request ids for the one
// the RMW now has a response for and hands the payload to whichever
// Call is blocked waiting on it.
func (c *Client) execute() {
	c.mu.Lock()
	ids := make([]uint64, 0, len(c.pending))
	for id := range c.pending {
		ids = append(ids, id)
	}
	c.mu.Unlock()

	for _, id := range ids {
		payload, ok := c.handle.TakeResponse(id)
		if !ok {
			continue
		}
		c.mu.Lock()
		ch, exists := c.pending[id]
		delete(c.pending, id)
		c.mu.Unlock()
		if exists {
			ch <- payload
		}
		return
	}
}

// Shutdown closes the client's transport handle.
func (c *Client) Shutdown() { c.handle.Close() }
