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
Package marker builds, finds and removes watermark frames in raw byte buffers.

	+--------+--------------------+--------+
	|  <<==  |  cipher(payload)   |  ==>>  |
	+--------+--------------------+--------+

	legacy:  LegacyPrefix  cipher(payload) ... EOF

🎯 Purpose:
- Produce the exact frame bytes appended to marked files
- Locate the most recent frame inside a tail window
- Remove stacked frames from a fully loaded file

🔄 Flow:
1. Callers read the last TailWindow bytes of a file
2. Find / FindLegacy / Extract inspect that window
3. Strip works on the whole content when a file is rewritten

📝 Notes:
Everything here is bytes.Index / bytes.LastIndex over []byte. Only the span
between the sentinels is ever converted to a string, so binary media never
goes through a lossy text conversion.
*/
package marker
