// Copyright 2023 Sneller, Inc.
//
//  Licensed under the Apache License, Version 2.0 (the "License");
//  you may not use this file except in compliance with the License.
//  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.

// Package sysinfo probes host resources that the ingest planner and
// operator dispatcher need: free memory (to size tasks) and a sane
// worker-pool width (to size pools).
package sysinfo

import (
	"bufio"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// assumedPerCPUFreeBytes is the fallback free-memory estimate used on
// platforms without /proc/meminfo (anything but Linux). It is
// deliberately conservative.
const assumedPerCPUFreeBytes = 512 << 20

// FreeMemory returns an estimate of currently available memory, in
// bytes. On Linux it reads MemAvailable from /proc/meminfo (the
// kernel's own estimate of memory available for a new workload without
// swapping); elsewhere it returns a fixed per-CPU estimate, since no
// portable probe exists.
func FreeMemory() int64 {
	if runtime.GOOS == "linux" {
		if v, ok := linuxMemAvailable(); ok {
			return v
		}
	}
	return int64(runtime.NumCPU()) * assumedPerCPUFreeBytes
}

func linuxMemAvailable() (int64, bool) {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0, false
	}
	defer f.Close()

	var memAvailable, memTotal int64
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "MemAvailable:"):
			memAvailable = parseMeminfoKB(line)
		case strings.HasPrefix(line, "MemTotal:"):
			memTotal = parseMeminfoKB(line)
		}
	}
	if memAvailable > 0 {
		return memAvailable, true
	}
	if memTotal > 0 {
		// no MemAvailable field (very old kernels): be conservative
		// and assume a quarter of total memory is free.
		return memTotal / 4, true
	}
	return 0, false
}

func parseMeminfoKB(line string) int64 {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0
	}
	kb, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return 0
	}
	return kb * 1024
}

// Workers returns a pool size for count independent tasks: at most
// GOMAXPROCS-1 (reserving one CPU for the controller/coordinator), at
// least 1, and never more than count itself.
func Workers(count int) int {
	if count <= 0 {
		return 0
	}
	n := runtime.GOMAXPROCS(0) - 1
	if n < 1 {
		n = 1
	}
	if n > count {
		n = count
	}
	return n
}
