// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// modelpngNamespace 是当前项目所有 Prometheus 指标使用的命名空间。
	modelpngNamespace = "modelpng"

	// 以下为当前使用的通用标签名。
	opLabelName     = "op"     // encode / decode
	methodLabelName = "method" // chunk / pixel
	statusLabelName = "status" // success / fail
)

var (
	// durationBuckets 为操作耗时直方图的桶划分，单位为毫秒。
	durationBuckets = prometheus.ExponentialBuckets(1, 2, 18)

	// sizeBuckets 为载荷大小的桶划分，单位为字节。
	sizeBuckets = []float64{1000, 10000, 100000, 1000000, 10000000, 100000000, 500000000, 1024000000, 2048000000}

	CodecOpTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: modelpngNamespace,
			Name:      "codec_op_total",
			Help:      "number of finished codec operations",
		}, []string{opLabelName, methodLabelName, statusLabelName})

	CodecOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: modelpngNamespace,
			Name:      "codec_op_duration_ms",
			Help:      "time cost of codec operations in milliseconds",
			Buckets:   durationBuckets,
		}, []string{opLabelName, methodLabelName})

	PayloadBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: modelpngNamespace,
			Name:      "payload_bytes",
			Help:      "original payload size in bytes",
			Buckets:   sizeBuckets,
		}, []string{methodLabelName})

	CompressedBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: modelpngNamespace,
			Name:      "compressed_bytes",
			Help:      "compressed payload size in bytes",
			Buckets:   sizeBuckets,
		}, []string{methodLabelName})

	metricRegisterer prometheus.Registerer
)

// GetRegisterer 返回全局 Prometheus Registerer。
// 如果尚未通过 Register 显式设置，则返回 prometheus.DefaultRegisterer。
func GetRegisterer() prometheus.Registerer {
	if metricRegisterer == nil {
		return prometheus.DefaultRegisterer
	}
	return metricRegisterer
}

// Register 注册当前定义的所有指标。
// 通常应在 init 函数中调用。
func Register(r prometheus.Registerer) {
	r.MustRegister(CodecOpTotal)
	r.MustRegister(CodecOpDuration)
	r.MustRegister(PayloadBytes)
	r.MustRegister(CompressedBytes)
	metricRegisterer = r
}
