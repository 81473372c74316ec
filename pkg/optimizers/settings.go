// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package optimizers

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/gomlx/dllogger/pkg/support/fsutil"
	"github.com/pkg/errors"
)

// ParseSettings updates the hyperparameters from settings, typically the contents of a flag set by the user.
// The settings are a list separated by ";": e.g.: "learning_rate=0.005;amsgrad=true".
//
// All the hyperparameters must be already defined in the optimizer: their current values define
// the type to which the string values are parsed.
//
// A setting "file:<path>" reads the settings from the given file, one or more per line (separated
// by ";"). Empty lines and lines starting with "#" are ignored.
//
// For integer types, "_" is removed: it allows one to enter large numbers using it as a separator,
// like in Go. E.g.: 1_000_000 = 1000000.
//
// It returns the names of the hyperparameters set, in order.
func (o *Optimizer) ParseSettings(settings string) (paramsSet []string, err error) {
	for _, setting := range strings.Split(settings, ";") {
		paramsSet, err = o.parseSetting(setting, paramsSet)
		if err != nil {
			return
		}
	}
	return
}

func (o *Optimizer) parseSetting(setting string, paramsSet []string) (newParamsSet []string, err error) {
	newParamsSet = paramsSet
	setting = strings.TrimSpace(setting)
	if setting == "" {
		return
	}
	if strings.HasPrefix(setting, "file:") {
		filePath := strings.TrimPrefix(setting, "file:")
		filePath, err = fsutil.ReplaceTildeInDir(filePath)
		if err != nil {
			return
		}
		var contents []byte
		contents, err = os.ReadFile(filePath)
		if err != nil {
			err = errors.Wrapf(err, "failed to read settings from file %q", filePath)
			return
		}
		for _, line := range strings.Split(string(contents), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			for _, lineSetting := range strings.Split(line, ";") {
				newParamsSet, err = o.parseSetting(lineSetting, newParamsSet)
				if err != nil {
					return
				}
			}
		}
		return
	}

	paramName, valueStr, found := strings.Cut(setting, "=")
	if !found || strings.Contains(valueStr, "=") {
		err = errors.Errorf("can't parse setting %q: each setting requires the format \"<param>=<value>\"", setting)
		return
	}
	paramName, valueStr = strings.TrimSpace(paramName), strings.TrimSpace(valueStr)
	value, found := o.params.Get(paramName)
	if !found {
		err = errors.Errorf("can't set hyperparameter %q because it is not known for optimizer %s, known hyperparameters: %q",
			paramName, o.name, o.params.Keys())
		return
	}

	switch v := value.(type) {
	case int:
		valueStr = strings.ReplaceAll(valueStr, "_", "")
		err = json.Unmarshal([]byte(valueStr), &v)
		value = v
	case float64:
		err = json.Unmarshal([]byte(valueStr), &v)
		value = v
	case bool:
		err = json.Unmarshal([]byte(valueStr), &v)
		value = v
	case string:
		value = valueStr
	default:
		err = errors.Errorf("don't know how to parse type %T for setting hyperparameter %q", value, paramName)
	}
	if err != nil {
		err = errors.Wrapf(err, "failed to parse value %q for hyperparameter %q (current value is %#v)",
			valueStr, paramName, value)
		return
	}
	o.params.Set(paramName, value)
	newParamsSet = append(newParamsSet, paramName)
	return
}
