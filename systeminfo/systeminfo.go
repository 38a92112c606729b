package systeminfo

import (
	"context"
	"fmt"
	"net"
	"os"
	"runtime"
	"time"

	"sigscan/logger"

	"github.com/shirou/gopsutil/v4/host"
)

// Host describes the machine a scan ran on. It is written once at the top of
// every output file.
type Host struct {
	Hostname        string          `json:"hostname"`
	OS              string          `json:"os"`
	Platform        string          `json:"platform,omitempty"`
	PlatformFamily  string          `json:"platform_family,omitempty"`
	PlatformVersion string          `json:"platform_version,omitempty"`
	KernelVersion   string          `json:"kernel_version,omitempty"`
	Arch            string          `json:"arch"`
	BootTime        string          `json:"boot_time,omitempty"`
	Interfaces      []InterfaceInfo `json:"network_interfaces,omitempty"`
}

type InterfaceInfo struct {
	Name      string   `json:"name"`
	MAC       string   `json:"mac"`
	Addresses []string `json:"addresses"`
}

// GetHost collects the host record. Collection failures are logged and leave
// the affected fields empty; the runtime OS and architecture are always set.
func GetHost(ctx context.Context) *Host {
	h := &Host{OS: runtime.GOOS, Arch: runtime.GOARCH}
	if name, err := os.Hostname(); err == nil {
		h.Hostname = name
	}
	if err := gatherHostInfo(ctx, h); err != nil {
		logger.Warnf("Failed to gather host info: %v", err)
	}
	if err := gatherNetworkInterfaces(h); err != nil {
		logger.Warnf("Failed to gather network interfaces: %v", err)
	}
	return h
}

func gatherHostInfo(ctx context.Context, h *Host) error {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to get host info: %w", err)
	}
	if info.Hostname != "" {
		h.Hostname = info.Hostname
	}
	h.Platform = info.Platform
	h.PlatformFamily = info.PlatformFamily
	h.PlatformVersion = info.PlatformVersion
	h.KernelVersion = info.KernelVersion
	if info.KernelArch != "" {
		h.Arch = info.KernelArch
	}
	if info.BootTime > 0 {
		h.BootTime = time.Unix(int64(info.BootTime), 0).UTC().Format(time.RFC3339)
	}
	return nil
}

func gatherNetworkInterfaces(h *Host) error {
	ifaces, err := net.Interfaces()
	if err != nil {
		return fmt.Errorf("failed to get network interfaces: %w", err)
	}
	for _, iface := range ifaces {
		info := InterfaceInfo{Name: iface.Name, MAC: iface.HardwareAddr.String()}
		addrs, err := iface.Addrs()
		if err == nil {
			for _, addr := range addrs {
				info.Addresses = append(info.Addresses, addr.String())
			}
		}
		h.Interfaces = append(h.Interfaces, info)
	}
	return nil
}

// Text renders the host as a single line for text output.
func (h *Host) Text() string {
	return fmt.Sprintf("# host %s (%s/%s %s)\n", h.Hostname, h.OS, h.Arch, h.PlatformVersion)
}
