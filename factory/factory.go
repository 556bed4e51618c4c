// SPDX-License-Identifier: Apache-2.0

package factory

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"

	"github.com/openlte-go/fdd-enb/logger"
)

var EnbConfig Config

func InitConfigFactory(f string) error {
	content, err := os.ReadFile(f)
	if err != nil {
		return err
	}

	EnbConfig = Config{}
	if err = yaml.Unmarshal(content, &EnbConfig); err != nil {
		return err
	}

	return nil
}

func CheckConfigVersion() error {
	currentVersion := EnbConfig.getVersion()

	if currentVersion != ExpectedConfigVersion {
		return fmt.Errorf("config version is [%s], but expected is [%s]",
			currentVersion, ExpectedConfigVersion)
	}

	logger.CfgLog.Infof("config version [%s]", currentVersion)

	return nil
}
