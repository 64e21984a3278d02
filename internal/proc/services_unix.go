//go:build !windows

package proc

const servicesFile = "/etc/services"
