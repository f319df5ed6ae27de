// Package callbacks builds and parses inline-button payloads of the form "command:argument".
package callbacks

import (
	"fmt"
	"strconv"
	"strings"
)

// Lifecycle buttons
const (
	AcceptOrder     = "accept_order"
	RejectOrder     = "reject_order"
	OnWay           = "on_way"
	WarrantyExpired = "warranty_expired"
	WarrantyValid   = "warranty_valid"
	WorkType        = "work_type"
	AcceptSparePart = "accept_spare_part"
	FinishOrder     = "finish_order"
)

// Menu navigation buttons
const (
	RegionCat    = "region_cat"
	RegionSub    = "region_sub"
	RegionBack   = "region_back"
	SelectMaster = "select_master"
	AutoDispatch = "auto_dispatch"
	Product      = "product"
	ProductNext  = "product_next"
	Cancel       = "cancel"
	StatsRefresh = "stats_refresh"
)

func Data(command string, args ...any) string {
	if len(args) == 0 {
		return command
	}

	parts := make([]string, 0, len(args)+1)
	parts = append(parts, command)
	for _, a := range args {
		parts = append(parts, fmt.Sprint(a))
	}
	return strings.Join(parts, ":")
}

// Parse splits a payload into its command and the raw argument after the first colon.
func Parse(data string) (command, arg string) {
	command, arg, _ = strings.Cut(data, ":")
	return command, arg
}

func ID(arg string) (int64, bool) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// IDAndValue parses "<id>:<value>" arguments such as work_type:12:difficult.
func IDAndValue(arg string) (int64, string, bool) {
	idPart, value, ok := strings.Cut(arg, ":")
	if !ok {
		return 0, "", false
	}
	id, ok := ID(idPart)
	return id, value, ok
}

// IsLifecycle reports whether a command drives an order through its states
// and is valid regardless of the user's session step.
func IsLifecycle(command string) bool {
	switch command {
	case AcceptOrder, RejectOrder, OnWay, WarrantyExpired, WarrantyValid,
		WorkType, AcceptSparePart, FinishOrder:
		return true
	default:
		return false
	}
}
