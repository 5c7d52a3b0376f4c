package ros

import (
	"fmt"
	"math/rand"
	"net"
	"net/http"

	"github.com/edwinhayes/rclgo/xmlrpc"
)

// ParameterService exposes a node's parameter store over XML-RPC, the
// same wire mechanism the teacher used for its master/slave API, kept
// here as the concrete shape of the "parameter services" outer
// contract the core names but does not itself specify.
type ParameterService struct {
	node     *defaultNode
	listener net.Listener
	handler  *xmlrpc.Handler
	uri      string
}

func listenRandomPort(address string, trialLimit int) (net.Listener, error) {
	var listener net.Listener
	var err error
	for trial := 0; trial < trialLimit; trial++ {
		port := 1024 + rand.Intn(65535-1024)
		listener, err = net.Listen("tcp", fmt.Sprintf("%s:%d", address, port))
		if err == nil {
			return listener, nil
		}
	}
	return nil, fmt.Errorf("rclgo: listenRandomPort exceeded trial limit: %w", err)
}

// NewParameterService starts an XML-RPC server fronting node's
// parameter store and returns its handle along with the URI clients
// should dial.
func NewParameterService(node *defaultNode) (*ParameterService, error) {
	listener, err := listenRandomPort(node.listenIP, 10)
	if err != nil {
		return nil, newTransportCreationFailedError("parameter_service", node.qualifiedName, err)
	}

	svc := &ParameterService{node: node, listener: listener}
	methods := map[string]xmlrpc.Method{
		"getParam": func(callerID string, key string) (interface{}, error) {
			return node.GetParam(key)
		},
		"setParam": func(callerID string, key string, value interface{}) (interface{}, error) {
			return nil, node.SetParam(key, value)
		},
		"hasParam": func(callerID string, key string) (interface{}, error) {
			return node.HasParam(key)
		},
		"searchParam": func(callerID string, key string) (interface{}, error) {
			return node.SearchParam(key)
		},
		"deleteParam": func(callerID string, key string) (interface{}, error) {
			return nil, node.DeleteParam(key)
		},
	}
	svc.handler = xmlrpc.NewHandler(methods)
	svc.uri = fmt.Sprintf("http://%s", listener.Addr().String())
	go http.Serve(listener, svc.handler)
	return svc, nil
}

func (s *ParameterService) URI() string { return s.uri }

func (s *ParameterService) Shutdown() {
	s.listener.Close()
	s.handler.WaitForShutdown()
}

// ParameterClient calls a remote node's ParameterService over XML-RPC.
type ParameterClient struct {
	uri      string
	callerID string
}

// NewParameterClient constructs a client that dials uri (as returned
// by ParameterService.URI on the remote node).
func NewParameterClient(uri, callerID string) *ParameterClient {
	return &ParameterClient{uri: uri, callerID: callerID}
}

func (c *ParameterClient) GetParam(key string) (interface{}, error) {
	return xmlrpc.Call(c.uri, "getParam", c.callerID, key)
}

func (c *ParameterClient) SetParam(key string, value interface{}) error {
	_, err := xmlrpc.Call(c.uri, "setParam", c.callerID, key, value)
	return err
}

func (c *ParameterClient) HasParam(key string) (bool, error) {
	result, err := xmlrpc.Call(c.uri, "hasParam", c.callerID, key)
	if err != nil {
		return false, err
	}
	has, _ := result.(bool)
	return has, nil
}

func (c *ParameterClient) SearchParam(key string) (string, error) {
	result, err := xmlrpc.Call(c.uri, "searchParam", c.callerID, key)
	if err != nil {
		return "", err
	}
	found, _ := result.(string)
	return found, nil
}

func (c *ParameterClient) DeleteParam(key string) error {
	_, err := xmlrpc.Call(c.uri, "deleteParam", c.callerID, key)
	return err
}
