//go:build windows

package proc

const servicesFile = `C:\Windows\System32\drivers\etc\services`
