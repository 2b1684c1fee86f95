/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

// Package command contains the client for the statistics API server.
package command

import (
	"errors"
	"fmt"

	"github.com/imroc/req"

	"jinr.ru/greenlab/go-dlt/pkg/config"
	"jinr.ru/greenlab/go-dlt/pkg/stats"
)

// ApiClient queries a running receive server
type ApiClient struct {
	*config.Config
	ApiPrefix string
}

// NewApiClient ...
func NewApiClient(cfg *config.Config) *ApiClient {
	return &ApiClient{
		Config:    cfg,
		ApiPrefix: fmt.Sprintf("http://%s:%d/api", cfg.ApiConfig.Address, cfg.ApiConfig.Port),
	}
}

// LiveStatistics gets the statistics the receiver accumulated so far
func (c *ApiClient) LiveStatistics() (*stats.StatisticInfo, error) {
	r, err := req.Get(fmt.Sprintf("%s/statistics/live", c.ApiPrefix))
	if err != nil {
		return nil, err
	}
	if r.Response().StatusCode != 200 {
		return nil, errors.New(r.Response().Status)
	}
	info := stats.NewStatisticInfo()
	if err = r.ToJSON(info); err != nil {
		return nil, err
	}
	return info, nil
}

// Sources gets all sources with cached statistics
func (c *ApiClient) Sources() ([]string, error) {
	r, err := req.Get(fmt.Sprintf("%s/statistics/sources", c.ApiPrefix))
	if err != nil {
		return nil, err
	}
	if r.Response().StatusCode != 200 {
		return nil, errors.New(r.Response().Status)
	}
	var sources []string
	if err = r.ToJSON(&sources); err != nil {
		return nil, err
	}
	return sources, nil
}

// SourceStatistics gets the cached statistics of one source
func (c *ApiClient) SourceStatistics(path string) (*stats.StatisticInfo, error) {
	r, err := req.Get(fmt.Sprintf("%s/statistics/source", c.ApiPrefix), req.QueryParam{"path": path})
	if err != nil {
		return nil, err
	}
	if r.Response().StatusCode != 200 {
		return nil, errors.New(r.Response().Status)
	}
	info := stats.NewStatisticInfo()
	if err = r.ToJSON(info); err != nil {
		return nil, err
	}
	return info, nil
}
