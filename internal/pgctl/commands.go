package pgctl

import (
	"fmt"
	"path"
	"strconv"
	"strings"
)

const (
	standbySignal  = "standby.signal"
	autoConfFile   = "postgresql.auto.conf"
	pgVersionFile  = "PG_VERSION"
	pgCtlCluster   = "pg_ctlcluster"
	createCluster  = "pg_createcluster"
	baseBackup     = "pg_basebackup"
	fastStopMode   = "fast"
	defaultAppName = "haas"
)

// quote makes s safe to splice into a POSIX shell command line.
func quote(s string) string {
	if s != "" && strings.IndexFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-_./=:@", r))
	}) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

func join(args ...string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = quote(a)
	}
	return strings.Join(quoted, " ")
}

// clusterCmd drives one cluster through pg_ctlcluster.
func clusterCmd(version, herd, action string) string {
	args := []string{pgCtlCluster, version, herd, action}
	if action == "stop" {
		args = append(args, "-m", fastStopMode)
	}
	return join(args...)
}

// primaryConnInfo is the libpq string a demoted instance streams from.
func primaryConnInfo(host string, port int, user string) string {
	return fmt.Sprintf("host=%s port=%d user=%s application_name=%s", host, port, user, defaultAppName)
}

// standbyCmd turns a stopped data directory into a standby of upstream.
// Any earlier primary_conninfo line is replaced.
func standbyCmd(pgdata, conninfo string) string {
	auto := path.Join(pgdata, autoConfFile)
	line := "primary_conninfo = '" + strings.ReplaceAll(conninfo, "'", "''") + "'"
	return strings.Join([]string{
		join("touch", path.Join(pgdata, standbySignal)),
		join("sed", "-i", "/^primary_conninfo/d", auto),
		"echo " + quote(line) + " >> " + quote(auto),
	}, " && ")
}

// initCmd bootstraps a data directory only when PG_VERSION is missing. A
// primary gets a fresh cluster, a replica a base backup of its master.
func initCmd(version, herd, pgdata string, port int, master *upstream) string {
	var create string
	if master == nil {
		create = join(createCluster, version, herd, "-d", pgdata, "-p", strconv.Itoa(port))
	} else {
		create = baseBackupCmd(pgdata, *master)
	}
	return fmt.Sprintf("test -f %s || { %s; }", quote(path.Join(pgdata, pgVersionFile)), create)
}

// baseBackupCmd streams a copy of master into pgdata and leaves it
// configured as a standby.
func baseBackupCmd(pgdata string, master upstream) string {
	return join(baseBackup,
		"-h", master.host,
		"-p", strconv.Itoa(master.port),
		"-U", master.user,
		"-D", pgdata,
		"-R", "-X", "stream",
	)
}

// stopIfRunningCmd stops the cluster only when pg_ctlcluster reports it up.
func stopIfRunningCmd(version, herd string) string {
	return fmt.Sprintf("if %s >/dev/null 2>&1; then %s; fi",
		clusterCmd(version, herd, "status"), clusterCmd(version, herd, "stop"))
}

// wipeCmd empties pgdata but keeps the directory and its ownership.
func wipeCmd(pgdata string) string {
	return join("find", pgdata, "-mindepth", "1", "-delete")
}

type upstream struct {
	host string
	port int
	user string
}
