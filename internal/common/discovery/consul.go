package discovery

import (
	"fmt"

	"github.com/hashicorp/consul/api"
)

// NewConsulClient 创建Consul客户端
func NewConsulClient(host string, port int) (*api.Client, error) {
	return api.NewClient(&api.Config{
		Address: fmt.Sprintf("%s:%d", host, port),
	})
}

// ServiceRegistry Consul服务注册（HTTP 健康检查）
type ServiceRegistry struct {
	client    *api.Client
	serviceID string
	service   string
	address   string
	port      int
	tags      []string
	check     *api.AgentServiceCheck
}

// NewServiceRegistry 创建服务注册器。健康检查探测 /healthz。
func NewServiceRegistry(client *api.Client, serviceID, service, address string, port int, tags []string) *ServiceRegistry {
	return &ServiceRegistry{
		client:    client,
		serviceID: serviceID,
		service:   service,
		address:   address,
		port:      port,
		tags:      tags,
		check: &api.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/healthz", address, port),
			Interval:                       "10s",
			Timeout:                        "5s",
			DeregisterCriticalServiceAfter: "30s",
		},
	}
}

// Register 注册服务
func (r *ServiceRegistry) Register() error {
	if r == nil || r.client == nil {
		return fmt.Errorf("consul client is nil")
	}
	reg := &api.AgentServiceRegistration{
		ID:      r.serviceID,
		Name:    r.service,
		Address: r.address,
		Port:    r.port,
		Tags:    r.tags,
		Check:   r.check,
	}
	return r.client.Agent().ServiceRegister(reg)
}

// Deregister 注销服务
func (r *ServiceRegistry) Deregister() error {
	if r == nil || r.client == nil {
		return fmt.Errorf("consul client is nil")
	}
	return r.client.Agent().ServiceDeregister(r.serviceID)
}
