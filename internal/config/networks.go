/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"travel-cover-go/internal/models"

	"gopkg.in/yaml.v2"
)

// defaultNetworks are the built-in profiles; NETWORKS_FILE may override them.
var defaultNetworks = map[string]models.NetworkConfig{
	EnvLocal: {
		Name:                "local",
		ChainId:             31337,
		PayoutAsset:         "USDC",
		VerificationBaseURL: "http://localhost:3000/verify",
		ExplorerURL:         "",
	},
	EnvTestnet: {
		Name:                "base-sepolia",
		ChainId:             84532,
		PayoutAsset:         "USDC-base-sepolia",
		VerificationBaseURL: "https://staging.travelcover.app/verify",
		ExplorerURL:         "https://sepolia.basescan.org",
	},
	EnvMainnet: {
		Name:                "base-mainnet",
		ChainId:             8453,
		PayoutAsset:         "USDC-base-mainnet",
		VerificationBaseURL: "https://travelcover.app/verify",
		ExplorerURL:         "https://basescan.org",
	},
}

type networksDocument struct {
	Networks map[string]models.NetworkConfig `yaml:"networks"`
}

// LoadNetwork resolves the network profile for an environment tag. When
// networksFile is set, entries found there replace the built-in profile.
func LoadNetwork(environment, networksFile string) (models.NetworkConfig, error) {
	profiles := make(map[string]models.NetworkConfig, len(defaultNetworks))
	for k, v := range defaultNetworks {
		profiles[k] = v
	}

	if networksFile != "" {
		overrides, err := readNetworksFile(networksFile)
		if err != nil {
			return models.NetworkConfig{}, err
		}
		for k, v := range overrides {
			profiles[k] = v
		}
	}

	network, ok := profiles[environment]
	if !ok {
		return models.NetworkConfig{}, fmt.Errorf("unknown environment %q", environment)
	}
	if network.VerificationBaseURL == "" {
		return models.NetworkConfig{}, fmt.Errorf("environment %q missing verification_base_url", environment)
	}
	if network.PayoutAsset == "" {
		return models.NetworkConfig{}, fmt.Errorf("environment %q missing payout_asset", environment)
	}
	return network, nil
}

func readNetworksFile(networksFile string) (map[string]models.NetworkConfig, error) {
	path := networksFile
	if !filepath.IsAbs(path) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		path = filepath.Join(wd, networksFile)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", networksFile, err)
	}

	var parsed networksDocument
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", networksFile, err)
	}
	return parsed.Networks, nil
}
