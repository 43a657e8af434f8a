// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Package config loads batch job files.

	            +-------------+
	            |     Job     |
	            |  (Options)  |
	            +------+------+
	                   |
	     +-------------+-------------+
	     |             |             |
	+----+----+   +----+----+   +----+----+
	|  YAML   |   |   HCL   |   |  JSON   |
	| Parser  |   | Parser  |   | Parser  |
	+---------+   +---------+   +---------+

🎯 Purpose:
- Describes a batch run in a file instead of flags
- Picks a parser by extension through a small registry
- Rejects unknown keys in every format
- Converts a validated Job into batch.Options

🔄 Flow:
1. Load reads the file and asks GetParser for a parser
2. The parser decodes into a Job
3. Relative source and font paths resolve against the job file
4. Validate checks required fields and fills defaults
5. Options loads the font and returns batch.Options

📝 Example (YAML):

	source: ./album
	copies: 3
	text: Order 5
	swap: true
	overlay:
	  font: builtin
	  position: bottom_right

📝 Example (HCL):

	source = "./album"
	copies = 3
	text   = format("Order %d", 5)

	overlay {
	  font = "builtin"
	}

HCL files can read environment variables as env.NAME.
*/
package config
