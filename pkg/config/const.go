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

package config

const (
	ConfigDir        = ".go-m72"
	ConfigFile       = "config"
	DefaultIP        = "127.0.0.1"
	DefaultApiPort   = 8002
	DefaultDBFile    = "m72.db"
	DefaultDevice    = "m72"
	DefaultLogLevel  = "info"
	DefaultUIOPath   = "/dev/uio0"
	DefaultMmapSize  = 0x100
	DefaultSimAddr   = "127.0.0.1:33300"
	DefaultPollMs    = 10
	DefaultPLDImage  = ""
	DefaultRemoteTmo = 500
)

// Register file backends
const (
	BackendSim    = "sim"
	BackendMmap   = "mmap"
	BackendRemote = "remote"
)
