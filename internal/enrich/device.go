// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package enrich

import (
	"regexp"
	"strings"

	"github.com/mssola/useragent"
)

// Platform values.
const (
	PlatformIOS     = "iOS"
	PlatformAndroid = "Android"
	PlatformWeb     = "Web"
)

// maxDeviceInfoLen bounds the raw user agent copied into device_info.
const maxDeviceInfoLen = 512

var iosVersionPattern = regexp.MustCompile(`OS (\d+)_(\d+)`)

// Device describes the runtime. Empty fields are unknown.
type Device struct {
	Platform string
	Browser  string
	OS       string
	Model    string
	Info     string
}

// Fields returns the non-empty descriptors keyed by metadata name.
func (d Device) Fields() map[string]any {
	out := make(map[string]any, 5)
	set := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	set("platform", d.Platform)
	set("browser", d.Browser)
	set("os", d.OS)
	set("device_model", d.Model)
	set("device_info", d.Info)
	return out
}

// NormalizePlatform maps a runtime platform hint ("ios", "android", "web")
// to its display value. Unknown hints return "".
func NormalizePlatform(hint string) string {
	switch strings.ToLower(strings.TrimSpace(hint)) {
	case "ios":
		return PlatformIOS
	case "android":
		return PlatformAndroid
	case "web":
		return PlatformWeb
	default:
		return ""
	}
}

// DescribeDevice derives a Device from a user agent and optional platform
// hint. A parser panic yields whatever was derived from the hint alone.
func DescribeDevice(userAgent, platformHint string) (d Device) {
	d.Platform = NormalizePlatform(platformHint)

	ua := strings.TrimSpace(userAgent)
	if ua == "" {
		return d
	}

	hinted := d
	defer func() {
		if r := recover(); r != nil {
			d = hinted
		}
	}()

	parsed := useragent.New(ua)
	lower := strings.ToLower(ua)

	inferred := ""
	switch {
	case strings.Contains(ua, "iPhone") || strings.Contains(ua, "iPad") || strings.Contains(ua, "iPod"):
		inferred = PlatformIOS
	case strings.Contains(lower, "android"):
		inferred = PlatformAndroid
	}

	name, version := parsed.Browser()
	if name != "" {
		d.Browser = strings.TrimSpace(name + " " + version)
	}
	if inferred == "" && name != "" && !parsed.Bot() {
		inferred = PlatformWeb
	}
	if d.Platform == "" {
		d.Platform = inferred
	}

	d.OS = describeOS(parsed, ua, inferred)
	d.Model = strings.TrimSpace(parsed.Model())

	if len(ua) > maxDeviceInfoLen {
		ua = ua[:maxDeviceInfoLen]
	}
	d.Info = ua
	return d
}

func describeOS(parsed *useragent.UserAgent, ua, platform string) string {
	if platform == PlatformIOS {
		if m := iosVersionPattern.FindStringSubmatch(ua); m != nil {
			return "iOS " + m[1] + "." + m[2]
		}
		return "iOS"
	}

	info := parsed.OSInfo()
	return strings.TrimSpace(info.Name + " " + info.Version)
}
