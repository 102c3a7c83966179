// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package notify

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"boardfarm/errors"
)

// Environment variables read by SettingsFromEnv.
const (
	EnvServer   = "BOARDFARM_SMTP_SERVER"
	EnvPassword = "BOARDFARM_SMTP_PASSWORD"
	EnvTimeout  = "BOARDFARM_SMTP_TIMEOUT"
	EnvFrom     = "BOARDFARM_MAIL_FROM"
	EnvTo       = "BOARDFARM_MAIL_TO"
	EnvCc       = "BOARDFARM_MAIL_CC"
	EnvBcc      = "BOARDFARM_MAIL_BCC"
)

// SettingsFromEnv reads mail settings from the process environment and from
// the given .env files. Process environment variables take precedence.
// Address lists are comma-separated.
func SettingsFromEnv(files ...string) (*Settings, error) {
	fileEnv := make(map[string]string)
	if len(files) > 0 {
		var err error
		if fileEnv, err = godotenv.Read(files...); err != nil {
			return nil, errors.Wrap(err, "failed to read env files")
		}
	}
	get := func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return fileEnv[key]
	}

	s := &Settings{
		Server:   get(EnvServer),
		Password: get(EnvPassword),
		From:     get(EnvFrom),
		To:       splitList(get(EnvTo)),
		Cc:       splitList(get(EnvCc)),
		Bcc:      splitList(get(EnvBcc)),
	}
	if v := get(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, errors.Wrapf(err, "bad %s", EnvTimeout)
		}
		s.Timeout = d
	}
	return s, nil
}

func splitList(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
