package proc

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/djdarcy/open-ports-and-programs/pkg/model"
)

var (
	servicesOnce sync.Once
	servicesMap  map[string]string
)

// ServiceName returns the well-known service name registered for a
// port and protocol ("https" for 443/TCP), or "" when the services
// database is missing or has no entry.
func ServiceName(port int, proto model.Protocol) string {
	servicesOnce.Do(func() {
		servicesMap = loadServices(servicesFile)
	})
	return servicesMap[strconv.Itoa(port)+"/"+strings.ToLower(string(proto))]
}

// loadServices parses a services(5) database: "name port/proto aliases"
// with # comments.
func loadServices(path string) map[string]string {
	services := make(map[string]string)

	f, err := os.Open(path)
	if err != nil {
		return services
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.IndexByte(line, '#'); idx != -1 {
			line = line[:idx]
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || !strings.ContainsRune(fields[1], '/') {
			continue
		}
		key := strings.ToLower(fields[1])
		if _, dup := services[key]; !dup {
			services[key] = fields[0]
		}
	}
	return services
}
